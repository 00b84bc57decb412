package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/modelrelay/modelrelay/agent"
	"github.com/modelrelay/modelrelay/config"
	"github.com/modelrelay/modelrelay/llm"
	"github.com/modelrelay/modelrelay/llm/deepseek"
	"github.com/modelrelay/modelrelay/llm/groq"
	"github.com/modelrelay/modelrelay/llm/openai"
	"github.com/modelrelay/modelrelay/llm/xai"
	relaylogger "github.com/modelrelay/modelrelay/logger"
	"github.com/modelrelay/modelrelay/migrations"
	"github.com/modelrelay/modelrelay/reader"
	"github.com/modelrelay/modelrelay/sessions"
	"github.com/modelrelay/modelrelay/tools"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   = flag.String("config", config.GetConfigPath(), "Path to config file")
		provider     = flag.String("provider", "", "Provider to use (openai, groq, deepseek, xai). Defaults to first available")
		model        = flag.String("model", "", "Model override")
		prompt       = flag.String("prompt", "", "Prompt to send")
		sessionID    = flag.String("session", "", "Session ID to continue. Empty starts a new session")
		stream       = flag.Bool("stream", false, "Stream the response")
		listSessions = flag.Bool("list-sessions", false, "List stored session IDs and exit")
		logFile      = flag.String("logfile", "", "Path to log file. If not set, logs to stdout/stderr")
		pretty       = flag.Bool("pretty", false, "Use pretty console output (only valid when logfile is not set)")
		dbPath       = flag.String("db", "", "Path to SQLite database file (overrides config)")
	)
	flag.Parse()

	if *logFile != "" && *pretty {
		return fmt.Errorf("--logfile and --pretty are mutually exclusive")
	}

	logger, err := relaylogger.InitWithOptions(*logFile, *pretty)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *dbPath != "" {
		cfg.Storage.Path = *dbPath
	}

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	if *listSessions {
		ids, err := store.GetAllSessionIDs(ctx, "", "")
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	if *prompt == "" {
		return fmt.Errorf("--prompt is required")
	}

	adapter, err := buildAdapter(cfg, *provider, *model, logger)
	if err != nil {
		return err
	}
	logger.Info().Str("provider", adapter.Provider()).Str("model", adapter.Model()).Msg("modelrelay starting")

	runner := agent.NewRunner(agent.Config{
		Adapter: adapter,
		Store:   store,
		System:  cfg.System,
		Logger:  logger,
	})

	if *stream {
		id, err := runner.RunStream(ctx, *sessionID, *prompt, func(resp llm.ModelResponse) error {
			fmt.Print(resp.Content)
			return nil
		})
		if err != nil {
			return err
		}
		fmt.Printf("\n[session %s]\n", id)
	} else {
		resp, id, err := runner.Run(ctx, *sessionID, *prompt)
		if err != nil {
			return err
		}
		fmt.Println(resp.Content)
		fmt.Printf("[session %s]\n", id)
	}

	logger.Debug().Interface("lifetime_metrics", adapter.LifetimeMetrics()).Msg("Run complete")
	return nil
}

func openStore(cfg *config.Config, logger zerolog.Logger) (sessions.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "json":
		store, err := sessions.NewJSONFileStore(cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open session directory: %w", err)
		}
		return store, func() {}, nil
	case "sqlite", "":
		db, err := sql.Open("sqlite3", cfg.Storage.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := migrations.RunMigrations(db, cfg.Storage.MigrationsPath, logger); err != nil {
			db.Close() //nolint:errcheck // no remedy for close errors here
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return sessions.NewSQLiteStore(db), func() { db.Close() }, nil //nolint:errcheck // see above
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}
}

func buildAdapter(cfg *config.Config, provider, model string, logger zerolog.Logger) (llm.Adapter, error) {
	registry := config.NewRegistry(cfg)

	var (
		key *llm.ClientKey
		err error
	)
	if provider != "" {
		key, err = registry.Resolve(provider, model)
	} else {
		key, err = registry.ResolveFirstAvailable(cfg.Providers)
	}
	if err != nil {
		return nil, err
	}

	timeout := time.Duration(cfg.Timeout) * time.Second

	toolRegistry := tools.NewRegistry(logger)
	tools.RegisterBuiltins(toolRegistry, &reader.PDFReader{
		Chunk:     cfg.Reader.Chunk,
		ChunkSize: cfg.Reader.ChunkSize,
		Logger:    &logger,
	})

	switch key.Provider {
	case llm.ProviderGroq:
		return groq.New(groq.Config{
			APIKey:     key.APIKey,
			BaseURL:    key.BaseURL,
			Model:      key.Model,
			Timeout:    timeout,
			Tools:      toolRegistry.Specs(),
			Dispatcher: toolRegistry,
			Logger:     logger,
		}), nil
	case llm.ProviderDeepSeek:
		return deepseek.New(openai.Config{
			APIKey:     key.APIKey,
			Model:      key.Model,
			Timeout:    timeout,
			Tools:      toolRegistry.Specs(),
			Dispatcher: toolRegistry,
			Logger:     logger,
		}), nil
	case llm.ProviderXAI:
		return xai.New(openai.Config{
			APIKey:     key.APIKey,
			Model:      key.Model,
			Timeout:    timeout,
			Tools:      toolRegistry.Specs(),
			Dispatcher: toolRegistry,
			Logger:     logger,
		}), nil
	default:
		return openai.New(openai.Config{
			APIKey:       key.APIKey,
			BaseURL:      key.BaseURL,
			Organization: key.Organization,
			Model:        key.Model,
			Timeout:      timeout,
			Tools:        toolRegistry.Specs(),
			Dispatcher:   toolRegistry,
			Logger:       logger,
		}), nil
	}
}
