package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"travel-wallet/internal/bot"
	"travel-wallet/internal/config"
	"travel-wallet/internal/countries"
	"travel-wallet/internal/ledger"
	"travel-wallet/internal/models"
	"travel-wallet/internal/rates"
	"travel-wallet/internal/render"
	"travel-wallet/internal/storage"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	dbPath     string
	user       string
	name       string
}

// app is the wired wallet used by every subcommand.
type app struct {
	db       *storage.DB
	ledger   *ledger.Ledger
	router   *bot.Router
	renderer *render.Renderer
	user     models.UserID
	name     string
	cfg      config.Config
	cancel   context.CancelFunc
}

func (a *app) Close() error {
	a.cancel()
	return a.db.Close()
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := newRootCmd(stdin, stdout, stderr)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "chat",
		Short:         "Talk to the travel wallet from a terminal",
		Long:          "Chat with the travel wallet over stdin/stdout. Send /help for commands; answer confirmations with y or n.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, stderr)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.repl(cmd.Context(), stdin, stdout)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", os.Getenv("CONFIG_PATH"), "Path to YAML config file")
	flags.StringVar(&opts.dbPath, "db", "", "Path to database file (overrides config)")
	flags.StringVar(&opts.user, "user", "console", "User identifier")
	flags.StringVar(&opts.name, "name", os.Getenv("USER"), "Display name")

	root.AddCommand(newTripsCmd(opts, stdout, stderr), newHistoryCmd(opts, stdout, stderr))
	return root
}

func openApp(opts *options, stderr io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)
	// The conversation is printed on stdout; only problems go to the log.
	logger = level.NewFilter(logger, level.AllowWarn())

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	service := rates.NewService(cfg.Rates.URL, cfg.Rates.APIKey, cfg.Rates.Timeout)
	service = rates.NewCachingService(ctx, cfg.Rates.Refresh, log.With(logger, "component", "rates_cache"), service)

	resolver := countries.Default()
	l := ledger.New(db, log.With(logger, "component", "ledger"))
	router := bot.NewRouter(l, rates.NewSource(service, cfg.Rates.Timeout), resolver, bot.NewMemoryStore(), bot.Options{
		PreferLiveRate: cfg.PreferLiveRate,
		HistoryLimit:   cfg.HistoryLimit,
	}, log.With(logger, "component", "bot"))

	return &app{
		db:       db,
		ledger:   l,
		router:   router,
		renderer: render.New(resolver),
		user:     models.UserID(opts.user),
		name:     opts.name,
		cfg:      cfg,
		cancel:   cancel,
	}, nil
}
