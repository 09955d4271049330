// Package config loads configuration and reads typed values with defaults.
package config

import (
	"os"
	"path/filepath"
	"strings"

	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"

	"github.com/Laisky/docs-search-mcp/library/log"
)

// LoadFromFile loads cfgPath into the shared configuration.
// An empty path or a missing file keeps the built-in defaults,
// any other load failure is fatal.
func LoadFromFile(cfgPath string) {
	cfgPath = strings.TrimSpace(cfgPath)
	if cfgPath == "" {
		log.Logger.Debug("no configuration file given, use defaults")
		return
	}
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Logger.Info("configuration file not found, use defaults",
			zap.String("config", cfgPath))
		return
	}

	gconfig.Shared.Set("cfg_dir", filepath.Dir(cfgPath))
	if err := gconfig.Shared.LoadFromFile(cfgPath); err != nil {
		log.Logger.Panic("load configuration",
			zap.Error(err),
			zap.String("config", cfgPath))
	}

	log.Logger.Info("load configuration",
		zap.String("config", cfgPath))
}
