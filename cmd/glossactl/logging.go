package main

import (
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

// newLogger builds the run logger: console encoding on a terminal, JSON
// otherwise, both to stderr so stdout stays machine-readable.
func newLogger(quiet, forceJSON bool) (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if !forceJSON && isatty.IsTerminal(os.Stderr.Fd()) {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}
	return cfg.Build()
}
