package log

import (
	"bytes"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

const childEnv = "DOCSEARCH_LOGGER_CHILD"

// TestLoggerKeepsStdoutClean runs the logger in a child process and checks
// that nothing it writes reaches stdout, which the stdio transport owns.
func TestLoggerKeepsStdoutClean(t *testing.T) {
	const marker = "docsearch logger output marker"
	if os.Getenv(childEnv) == "1" {
		Logger.Info(marker)
		Logger.Warn(marker)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=^TestLoggerKeepsStdoutClean$")
	cmd.Env = append(os.Environ(), childEnv+"=1")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	require.NoError(t, cmd.Run(), stderr.String())

	require.NotContains(t, stdout.String(), marker)
	require.Contains(t, stderr.String(), marker)
}
