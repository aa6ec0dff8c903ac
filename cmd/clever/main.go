package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/rhino1998/clever/pkg/compiler"
	"github.com/rhino1998/clever/pkg/config"
	"github.com/rhino1998/clever/pkg/modules"
	"github.com/rhino1998/clever/pkg/modules/builtin"
	"github.com/rhino1998/clever/pkg/parser"
	"github.com/rhino1998/clever/pkg/vm"
)

const imageExt = ".clvm"

var (
	errorColor = color.New(color.FgRed, color.Bold)
	faultColor = color.New(color.FgYellow, color.Bold)
)

func flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			Aliases: []string{"d"},
			Usage:   "log compiler and vm activity to stderr",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to clever.toml, searched upwards from the source when unset",
		},
	}
}

// env is the state every command builds from its flags.
type env struct {
	logger  *slog.Logger
	config  config.Config
	modules *modules.Manager
}

func newEnv(c *cli.Command, source string) (*env, error) {
	logger := slog.Default()
	if c.Bool("debug") {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var cfg config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		loaded, path, err := config.Discover(filepath.Dir(source))
		if err != nil {
			return nil, err
		}
		if path != "" {
			logger.Debug("loaded config", slog.String("path", path))
		}
		cfg = loaded
	}

	mgr, err := builtin.NewManager(logger, cfg.Modules.Disabled...)
	if err != nil {
		return nil, fmt.Errorf("failed to register modules: %w", err)
	}

	return &env{logger: logger, config: cfg, modules: mgr}, nil
}

func (e *env) compile(path string) (*compiler.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return parser.Compile(e.logger, e.config.CompilerConfig(path, e.modules), f)
}

func (e *env) load(path string) (*compiler.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return compiler.ReadImage(f, e.modules)
}

func (e *env) run(ctx context.Context, prog *compiler.Program) (err error) {
	defer func() {
		err = errors.Join(err, prog.Close())
	}()

	machine, err := vm.New(e.logger, prog, e.config.VMConfig())
	if err != nil {
		return err
	}

	return machine.Run(ctx)
}

func sourceArg(c *cli.Command) (string, error) {
	if c.Args().Len() != 1 {
		return "", fmt.Errorf("must provide exactly one file as argument")
	}

	path := c.Args().First()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	return path, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd := &cli.Command{
		Name:  "clever",
		Usage: "Compile and run clever programs",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Compile a source file and execute it",
				ArgsUsage: "<file>",
				Flags:     flags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					path, err := sourceArg(c)
					if err != nil {
						return err
					}

					e, err := newEnv(c, path)
					if err != nil {
						return err
					}

					prog, err := e.compile(path)
					if err != nil {
						return err
					}

					return e.run(ctx, prog)
				},
			},
			{
				Name:      "build",
				Usage:     "Compile a source file into an image",
				ArgsUsage: "<file>",
				Flags: append(flags(), &cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "image path, defaults to the source name with " + imageExt,
				}),
				Action: func(ctx context.Context, c *cli.Command) error {
					path, err := sourceArg(c)
					if err != nil {
						return err
					}

					e, err := newEnv(c, path)
					if err != nil {
						return err
					}

					prog, err := e.compile(path)
					if err != nil {
						return err
					}
					defer prog.Close()

					outPath := c.String("output")
					if outPath == "" {
						outPath = strings.TrimSuffix(path, filepath.Ext(path)) + imageExt
					}

					out, err := os.Create(outPath)
					if err != nil {
						return err
					}
					defer out.Close()

					if err := compiler.WriteImage(out, prog); err != nil {
						return err
					}

					e.logger.Debug("wrote image", slog.String("path", outPath))
					return nil
				},
			},
			{
				Name:      "exec",
				Usage:     "Execute a compiled image",
				ArgsUsage: "<image>",
				Flags:     flags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					path, err := sourceArg(c)
					if err != nil {
						return err
					}

					e, err := newEnv(c, path)
					if err != nil {
						return err
					}

					prog, err := e.load(path)
					if err != nil {
						return err
					}

					return e.run(ctx, prog)
				},
			},
			{
				Name:      "dump",
				Usage:     "Print the IR of a source file or image",
				ArgsUsage: "<file>",
				Flags:     flags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					path, err := sourceArg(c)
					if err != nil {
						return err
					}

					e, err := newEnv(c, path)
					if err != nil {
						return err
					}

					var prog *compiler.Program
					if filepath.Ext(path) == imageExt {
						prog, err = e.load(path)
					} else {
						prog, err = e.compile(path)
					}
					if err != nil {
						return err
					}
					defer prog.Close()

					return prog.Dump(os.Stdout)
				},
			},
			{
				Name:  "modules",
				Usage: "List the native modules available to import",
				Flags: flags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					e, err := newEnv(c, ".")
					if err != nil {
						return err
					}

					return listModules(os.Stdout, e.modules)
				},
			},
		},
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

func listModules(w io.Writer, mgr *modules.Manager) error {
	for _, name := range mgr.Modules() {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}

	return nil
}

func report(w io.Writer, err error) {
	var fault *vm.RuntimeFault
	var compileErr *compiler.CompileError
	var posErr parser.PositionError

	switch {
	case errors.As(err, &fault):
		faultColor.Fprint(w, "fault: ")
	case errors.As(err, &compileErr), errors.As(err, &posErr):
		errorColor.Fprint(w, "error: ")
	default:
		errorColor.Fprint(w, "clever: ")
	}

	fmt.Fprintln(w, err)
}
