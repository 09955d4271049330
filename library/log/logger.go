// Package log is a logging package that provides functions to log messages.
package log

import (
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
)

// Logger is the process-wide logger. It writes to stderr because the stdio
// transport owns stdout.
var Logger logSDK.Logger

func init() {
	var err error
	if Logger, err = logSDK.New(
		logSDK.WithName("docsearch"),
		logSDK.WithEncoding(logSDK.EncodingConsole),
		logSDK.WithLevel(logSDK.LevelInfo),
		logSDK.WithOutputPaths([]string{"stderr"}),
	); err != nil {
		logSDK.Shared.Panic("new logger", zap.Error(err))
	}
}
