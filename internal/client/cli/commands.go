package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/syncstore/internal/client/iocli"
	"github.com/iudanet/syncstore/internal/config"
)

// closeTimeout bounds the final flush of the local storage
const closeTimeout = 5 * time.Second

type rootFlags struct {
	configPath  string
	serverAddr  string
	storagePath string
	backend     string
	logLevel    string
	askPass     bool
}

// NewRootCommand builds the client command tree. Every command loads the
// configuration, opens the local storage and connects before running.
func NewRootCommand(version string, stdio iocli.IO) *cobra.Command {
	f := &rootFlags{}
	root := &cobra.Command{
		Use:           "syncstore-client",
		Short:         "Read and write synchronised values",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "path to the TOML configuration")
	pf.StringVarP(&f.serverAddr, "server", "s", "", "server address, browsed over mDNS when empty")
	pf.StringVar(&f.storagePath, "storage", "", "path to the local storage")
	pf.StringVar(&f.backend, "backend", "", "local storage backend: bolt or sqlite")
	pf.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&f.askPass, "ask-passphrase", false, "prompt for the passphrase sealing local values")

	var typ string
	set := &cobra.Command{
		Use:   "set <db> <value> <text>",
		Short: "Write a value and wait until the server has ordered it",
		Args:  cobra.ExactArgs(3),
		RunE: f.run(stdio, func(ctx context.Context, c *Cli, args []string) error {
			return c.runSet(ctx, args[0], args[1], args[2], typ)
		}),
	}
	set.Flags().StringVarP(&typ, "type", "t", TypeAuto, "value type: auto, string, int, float, bool, json")

	root.AddCommand(
		&cobra.Command{
			Use:   "get <db> <value>",
			Short: "Show a value",
			Args:  cobra.ExactArgs(2),
			RunE: f.run(stdio, func(ctx context.Context, c *Cli, args []string) error {
				return c.runGet(ctx, args[0], args[1])
			}),
		},
		set,
		&cobra.Command{
			Use:   "watch <db> [value]",
			Short: "Print updates until interrupted",
			Args:  cobra.RangeArgs(1, 2),
			RunE: f.run(stdio, func(ctx context.Context, c *Cli, args []string) error {
				valueID := ""
				if len(args) == 2 {
					valueID = args[1]
				}
				return c.runWatch(ctx, args[0], valueID)
			}),
		},
		&cobra.Command{
			Use:   "delete <db>",
			Short: "Delete a database on every peer",
			Args:  cobra.ExactArgs(1),
			RunE: f.run(stdio, func(ctx context.Context, c *Cli, args []string) error {
				return c.runDelete(ctx, args[0])
			}),
		},
		&cobra.Command{
			Use:   "console",
			Short: "Run commands interactively",
			Args:  cobra.NoArgs,
			RunE: f.run(stdio, func(ctx context.Context, c *Cli, _ []string) error {
				return c.runConsole(ctx)
			}),
		},
	)
	return root
}

// load reads the configuration file and applies the flags given on the command line
func (f *rootFlags) load(cmd *cobra.Command) (*config.Client, error) {
	cfg, err := config.LoadClient(f.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerAddr = f.serverAddr
	}
	if flags.Changed("storage") {
		cfg.StoragePath = f.storagePath
	}
	if flags.Changed("backend") {
		cfg.StorageBackend = f.backend
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg, cfg.Validate()
}

func (f *rootFlags) run(stdio iocli.IO, fn func(ctx context.Context, c *Cli, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := f.load(cmd)
		if err != nil {
			return err
		}
		level, _ := config.ParseLevel(cfg.LogLevel)
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		c, err := Open(ctx, cfg, stdio, logger, f.askPass)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
			defer cancel()
			err = errors.Join(err, c.Close(closeCtx))
		}()

		c.connect(ctx)
		return fn(ctx, c, args)
	}
}
