// Package vm executes compiled programs. Every thread shares one immutable
// Code handle and owns its program counter, call stack and a private copy of
// the slots allocated inside function and thread bodies.
package vm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/rhino1998/clever/pkg/compiler"
	"github.com/rhino1998/clever/pkg/compiler/ir"
	"github.com/rhino1998/clever/pkg/value"
)

const defaultMaxCallDepth = 1024

type Config struct {
	Stdout       io.Writer
	MaxCallDepth int
	Trace        bool
}

func (c *Config) Validate(logger *slog.Logger) error {
	if c.MaxCallDepth < 0 {
		return fmt.Errorf("max call depth must not be negative, got %d", c.MaxCallDepth)
	}
	if c.MaxCallDepth == 0 {
		c.MaxCallDepth = defaultMaxCallDepth
	}

	if c.Stdout == nil {
		logger.Debug("no stdout configured, using os.Stdout")
		c.Stdout = os.Stdout
	}

	return nil
}

// Code is the part of a program every thread may read without
// synchronization.
type Code struct {
	instructions ir.Vector
	values       *value.Pool
	owned        []value.ID
}

func (c *Code) Len() int {
	return len(c.instructions)
}

type VM struct {
	logger *slog.Logger
	config Config

	code *Code
	out  *syncWriter

	threads atomic.Uint32
}

func New(logger *slog.Logger, prog *compiler.Program, config Config) (*VM, error) {
	err := config.Validate(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to validate vm config: %w", err)
	}

	return &VM{
		logger: logger,
		config: config,
		code: &Code{
			instructions: prog.Code,
			values:       prog.Values,
			owned:        prog.Values.Owned(),
		},
		out: &syncWriter{w: config.Stdout},
	}, nil
}

// Run executes the program on a new main thread until it halts, faults or ctx
// is cancelled. Threads still running at halt are joined first.
func (vm *VM) Run(ctx context.Context) error {
	t := vm.newThread()
	return t.run(ctx)
}

func (vm *VM) newThread() *Thread {
	return &Thread{
		id: vm.threads.Add(1) - 1,
		vm: vm,
	}
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) println(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := fmt.Fprintln(w.w, s)
	return err
}
