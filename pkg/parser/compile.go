package parser

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rhino1998/clever/pkg/compiler"
)

// Compile parses r with a fresh compiler and finalizes the result.
func Compile(logger *slog.Logger, config compiler.Config, r io.Reader) (*compiler.Program, error) {
	c, err := compiler.New(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize compiler: %w", err)
	}

	if err := Parse(c, config.File, r); err != nil {
		return nil, err
	}

	return c.Finalize()
}
