package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// InstallLogFile is the name of the install log written under the log
// directory when --log-file is set.
const InstallLogFile = "install.log"

// newLogger configures the default slog logger for a run: text lines on
// stderr at Info, Debug with verbose. When logPath is set the same lines
// are appended to that file. The returned func closes the file.
func newLogger(stderr io.Writer, verbose bool, logPath string) (*slog.Logger, func() error, error) {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	w := stderr
	closeFn := func() error { return nil }
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open install log: %w", err)
		}
		w = io.MultiWriter(stderr, f)
		closeFn = f.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
