// Command codectx speaks the tool-invocation protocol on its standard
// streams, answering search_context calls by incrementally indexing a
// project tree and querying a remote retrieval API. An "index"
// subcommand is also provided for a one-off manual pass with terminal
// progress output.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/codectx/internal/appdirs"
	"github.com/standardbeagle/codectx/internal/cliux"
	"github.com/standardbeagle/codectx/internal/config"
	"github.com/standardbeagle/codectx/internal/facade"
	"github.com/standardbeagle/codectx/internal/indexer"
	"github.com/standardbeagle/codectx/internal/logging"
	"github.com/standardbeagle/codectx/internal/mcpserver"
	"github.com/standardbeagle/codectx/internal/metrics"
	"github.com/standardbeagle/codectx/internal/registry"
	"github.com/standardbeagle/codectx/internal/retrieval"
	"github.com/standardbeagle/codectx/internal/version"
)

const searchRetryFloor = 2 * time.Second

func main() {
	app := &cli.App{
		Name:                   "codectx",
		Usage:                  "Incremental code indexing and semantic search bridge",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Retrieval API base URL (overrides config and " + config.EnvPrefix + "BASE_URL)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Retrieval API bearer token (overrides config and " + config.EnvPrefix + "TOKEN)",
			},
			&cli.IntFlag{
				Name:  "web-port",
				Usage: "Port for the administrative web interface (out of core scope; acknowledged only)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "index",
				Usage: "Run one manual indexing pass over a project root and print a summary",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "root",
						Usage:    "Project root to index",
						Required: true,
					},
				},
				Action: indexCommand,
			},
		},
		Action: serveCommand,
	}

	if err := app.Run(os.Args); err != nil {
		cliux.Error("%v", err)
		os.Exit(1)
	}
}

func loadSettings(c *cli.Context) (*config.Settings, error) {
	configPath, err := appdirs.ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	overrides := config.Overrides{
		BaseURL: c.String("base-url"),
		Token:   c.String("token"),
	}
	if c.IsSet("web-port") {
		port := c.Int("web-port")
		overrides.WebPort = &port
	}

	return config.Load(configPath, overrides)
}

func newLogger(forStdio bool) (*logging.Logger, error) {
	if !forStdio {
		return logging.NewStderrLogger(), nil
	}
	dir, err := appdirs.LogDir()
	if err != nil {
		return logging.NewStderrLogger(), nil
	}
	log, err := logging.NewFileLogger(dir)
	if err != nil {
		return logging.NewStderrLogger(), nil
	}
	return log, nil
}

func openRegistry() (*registry.Registry, error) {
	path, err := appdirs.RegistryPath()
	if err != nil {
		return nil, fmt.Errorf("resolving registry path: %w", err)
	}
	return registry.Open(path)
}

// serveCommand is the default action: speak the protocol on stdio.
// Logging is file-backed so stdout/stdin stay clean for protocol
// framing.
func serveCommand(c *cli.Context) error {
	settings, err := loadSettings(c)
	if err != nil {
		return err
	}
	log, err := newLogger(true)
	if err != nil {
		return err
	}
	defer log.Close()

	reg, err := openRegistry()
	if err != nil {
		return err
	}

	m := metrics.New()
	uploadClient := retrieval.New(settings.BaseURL, settings.Token, settings.MaxRetries, settings.RetryBaseDelay)
	searchDelay := settings.RetryBaseDelay
	if searchDelay < searchRetryFloor {
		searchDelay = searchRetryFloor
	}
	searchClient := retrieval.New(settings.BaseURL, settings.Token, settings.MaxRetries, searchDelay)

	f := facade.New(reg, uploadClient, searchClient, settings, m, log)
	srv := mcpserver.New(f, "codectx", version.Version, log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Printf("codectx %s starting on stdio", version.Version)
	return srv.Run(ctx)
}

// indexCommand runs one manual pass with terminal progress, useful
// for warming the registry before a search session.
func indexCommand(c *cli.Context) error {
	settings, err := loadSettings(c)
	if err != nil {
		return err
	}
	log, err := newLogger(false)
	if err != nil {
		return err
	}
	defer log.Close()

	reg, err := openRegistry()
	if err != nil {
		return err
	}

	m := metrics.New()
	uploadClient := retrieval.New(settings.BaseURL, settings.Token, settings.MaxRetries, settings.RetryBaseDelay)
	ix := indexer.New(reg, uploadClient, m, log)

	root := c.String("root")
	cliux.Info("indexing %s", root)
	bar := cliux.Bar(1, "walking and uploading")
	defer bar.Finish()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	identities, err := ix.Run(ctx, root, settings)
	if err != nil {
		return err
	}
	bar.Add(1)

	cliux.Summarize(len(identities))
	return nil
}
