package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/chemquiz/internal/catalog"
	"github.com/pavelanni/chemquiz/internal/demo"
	"github.com/pavelanni/chemquiz/internal/handler"
	appI18n "github.com/pavelanni/chemquiz/internal/i18n"
	"github.com/pavelanni/chemquiz/internal/llm"
	"github.com/pavelanni/chemquiz/internal/llm/prompts"
	"github.com/pavelanni/chemquiz/internal/model"
	"github.com/pavelanni/chemquiz/internal/store"
	"github.com/pavelanni/chemquiz/internal/watch"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chemquiz",
		Short: "Chemical nomenclature quiz server",
	}

	serve := serveCmd()
	root.AddCommand(serve, quizCmd(), pathsCmd(), manifestCmd(), importCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `chemquiz --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	addSourceFlags(f)
	f.StringP("manifest", "m", "", "Catalog manifest file (JSON or YAML)")
	f.StringP("lang", "l", "en", "Default UI language (en, ja)")
	f.IntP("option-count", "n", demo.OptionCount, "Answer options per quiz")
	f.String("mode", string(model.ModeNameToStructure), "Default quiz mode (name_to_structure, structure_to_name)")
	f.Bool("watch", false, "Reload the catalog directory when its files change")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty disables explanations)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("explain-variant", string(prompts.PromptStandard), "Explanation prompt variant (brief, standard, detailed)")
	f.StringSlice("cors-origin", []string{"*"}, "Allowed CORS origins (repeatable)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	addLogFlags(f)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("CHEMQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("chemquiz")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/chemquiz")
	v.AddConfigPath("/etc/chemquiz")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cat, source, err := loadCatalog(v)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	slog.Info("catalog ready", "source", source, "compounds", cat.Len())

	var manifest *catalog.Manifest
	if path := v.GetString("manifest"); path != "" {
		manifest, err = catalog.LoadManifest(path)
		if err != nil {
			return fmt.Errorf("load manifest: %w", err)
		}
		slog.Info("manifest loaded", "path", path, "leaves", len(manifest.Leaves()))
	}

	mode, ok := model.ParseQuizMode(v.GetString("mode"))
	if !ok {
		return fmt.Errorf("unknown quiz mode %q", v.GetString("mode"))
	}

	explainVariant := strings.ToLower(strings.TrimSpace(v.GetString("explain-variant")))
	if !prompts.IsValidVariant(explainVariant) {
		slog.Warn("invalid explain-variant, using standard", "variant", explainVariant)
		explainVariant = string(prompts.PromptStandard)
	}

	cfg := model.Config{
		OptionCount:    v.GetInt("option-count"),
		Mode:           mode,
		Lang:           lang,
		ExplainVariant: explainVariant,
	}

	// A nil *llm.Client must not end up inside the interface.
	var explainer handler.Explainer
	if url := v.GetString("llm-url"); url != "" {
		if err := prompts.Load(prompts.Templates); err != nil {
			return fmt.Errorf("load prompts: %w", err)
		}
		client := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		client.SetVariant(cfg.ExplainVariant)
		explainer = client
		slog.Info("LLM explanations enabled", "url", url, "model", v.GetString("llm-model"), "variant", cfg.ExplainVariant)
	}

	h, err := handler.New(cat, manifest, explainer, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if v.GetBool("watch") {
		dir := v.GetString("catalog")
		if dir == "" {
			return errors.New("--watch requires --catalog")
		}
		w, err := watch.New(dir, func() error {
			c, err := catalog.FromDirectory(dir, catalog.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			h.SetCatalog(c)
			return nil
		}, watch.Options{Logger: slog.Default()})
		if err != nil {
			return fmt.Errorf("watch catalog: %w", err)
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				slog.Error("catalog watcher stopped", "error", err)
			}
		}()
		slog.Info("watching catalog directory", "dir", dir)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: v.GetStringSlice("cors-origin"),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Language", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server",
			"addr", addr,
			"lang", lang,
			"mode", cfg.Mode,
			"option_count", cfg.OptionCount,
			"base_path", basePath,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// loadCatalog picks the catalog source: a data directory, then a populated
// database, then the built-in demo set.
func loadCatalog(v *viper.Viper) (*catalog.Catalog, string, error) {
	if dir := v.GetString("catalog"); dir != "" {
		cat, err := catalog.FromDirectory(dir, catalog.WithLogger(slog.Default()))
		if err != nil {
			return nil, "", err
		}
		return cat, dir, nil
	}

	if dbPath := v.GetString("db"); dbPath != "" {
		db, err := store.New(dbPath)
		if err != nil {
			return nil, "", fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		count, err := db.EntryCount()
		if err != nil {
			return nil, "", fmt.Errorf("count entries: %w", err)
		}
		if count > 0 {
			cat, err := db.LoadCatalog()
			if err != nil {
				return nil, "", err
			}
			return cat, dbPath, nil
		}
		slog.Warn("database has no compounds, using demo catalog", "db", dbPath)
	}

	return demo.Catalog(), "demo", nil
}
