package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"sat-prep-service/internal/config"
	"sat-prep-service/internal/engine"
	"sat-prep-service/internal/infra/memory"
	pgbank "sat-prep-service/internal/infra/postgres"
	redisinfra "sat-prep-service/internal/infra/redis"
	"sat-prep-service/internal/questions"
	transport "sat-prep-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	// Question source: postgres-backed bank when configured, the curated
	// static bank otherwise; the AI generator, when keyed, takes priority
	// with the bank as fallback.
	cacheTTL := config.Duration(cfg.Questions.CacheTTL, 10*time.Minute)
	var bankSource engine.QuestionSource
	if pool != nil {
		var loader questions.BankLoader = pgbank.NewBankLoader(pool)
		if redisClient != nil {
			loader = redisinfra.NewBankCache(redisClient, loader, cacheTTL)
		}
		bankSource = questions.NewCachedBank(loader, cacheTTL)
	} else {
		bankSource = questions.NewStaticBank()
	}

	var source engine.QuestionSource = bankSource
	var explainer questions.Explainer = questions.StaticExplainer{}
	if cfg.Generator.APIKey != "" {
		generator := questions.NewGenerator(cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.BaseURL)
		source = questions.NewFallback(questions.NewBatcher(generator), bankSource)
		explainer = generator
	}

	var accounts engine.AccountStore
	var guest engine.GuestStore
	if redisClient != nil {
		accounts = redisinfra.NewAccountStore(redisClient)
		guest = redisinfra.NewGuestStore(redisClient)
	} else {
		accounts = memory.NewAccountStore()
		guest = memory.NewGuestStore()
	}

	wsHandler := transport.NewWSHandler(transport.Deps{
		Source:    source,
		Explainer: explainer,
		Accounts:  accounts,
		Guest:     guest,
		EngineOpts: []engine.Option{
			engine.WithAdvanceDelay(config.Duration(cfg.Engine.AdvanceDelay, 700*time.Millisecond)),
			engine.WithTickInterval(config.Duration(cfg.Engine.TickInterval, time.Second)),
		},
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting sat prep service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
