// @title chatmatch API
// @version 1.0
// @description Rosters of participants and greedy pairing rounds.
// @BasePath /
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/chatmatch/config"
	"github.com/Dosada05/chatmatch/db"
	"github.com/Dosada05/chatmatch/handlers"
	"github.com/Dosada05/chatmatch/metrics"
	"github.com/Dosada05/chatmatch/pairing"
	"github.com/Dosada05/chatmatch/repositories"
	api "github.com/Dosada05/chatmatch/routes"
	"github.com/Dosada05/chatmatch/services"
	"github.com/Dosada05/chatmatch/storage"
	"github.com/Dosada05/chatmatch/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type store struct {
	rosters repositories.RosterRepository
	events  repositories.EventRepository
	check   func(ctx context.Context) error
	close   func() error
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx, dbConn); err != nil {
			dbConn.Close()
			return nil, err
		}
		logger.Info("database connection established")
		return &store{
			rosters: repositories.NewPostgresRosterRepository(dbConn),
			events:  repositories.NewPostgresEventRepository(dbConn),
			check:   dbConn.PingContext,
			close:   dbConn.Close,
		}, nil

	case config.DriverDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.DynamoDBEndpoint != "" {
				o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
			}
		})
		ds := repositories.NewDynamoStore(client, cfg.DynamoDBTable)
		logger.Info("dynamodb store configured", slog.String("table", cfg.DynamoDBTable))
		return &store{
			rosters: ds.Rosters(),
			events:  ds.Events(),
			check: func(ctx context.Context) error {
				_, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(cfg.DynamoDBTable)})
				return err
			},
			close: func() error { return nil },
		}, nil

	case config.DriverMemory:
		ms := repositories.NewMemoryStore()
		logger.Warn("using in-memory store, data is lost on restart")
		return &store{
			rosters: ms.Rosters(),
			events:  ms.Events(),
			close:   func() error { return nil },
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownStoreDriver, cfg.StoreDriver)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("store", cfg.StoreDriver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := st.close(); err != nil {
			logger.Error("failed to close store", slog.Any("error", err))
		}
	}()

	var archive storage.RosterArchiver
	if cfg.ArchiveEnabled() {
		uploader, err := storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		archive = storage.NewRosterArchive(uploader)
		logger.Info("roster archive enabled", slog.String("bucket", cfg.R2BucketName))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	wsHub := pairing.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	generator := pairing.NewGreedyGenerator()
	rosterService := services.NewRosterService(st.rosters, st.events, utils.NewIDAllocator(nil), archive, wsHub, m, logger, cfg.ListLimit)
	eventService := services.NewEventService(st.rosters, st.events, generator, wsHub, m, logger)

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		handlers.NewRosterHandler(rosterService),
		handlers.NewEventHandler(eventService),
		handlers.NewWebSocketHandler(wsHub, rosterService, cfg.CORSAllowedOrigins),
		handlers.NewHealthHandler(st.check),
		api.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Metrics:        m,
			MetricsHandler: promhttp.Handler(),
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}
