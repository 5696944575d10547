// Command hirewired serves the acceptance API as a standalone HTTP
// service.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-chi/chi/v5"
	r "github.com/redis/go-redis/v9"

	"github.com/jacentio/hirewire/accept"
	"github.com/jacentio/hirewire/httpapi"
	"github.com/jacentio/hirewire/internal/config"
	"github.com/jacentio/hirewire/notify"
	"github.com/jacentio/hirewire/repository"
	"github.com/jacentio/hirewire/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Error("load aws config", "error", err)
		os.Exit(1)
	}

	st := store.New(dynamodb.NewFromConfig(awsCfg), store.Config{
		TableName:     cfg.TableName,
		ByActorIndex:  cfg.ByActorIndex,
		ByStatusIndex: cfg.ByStatusIndex,
	})

	var notifier accept.Notifier
	if cfg.RedisAddr != "" {
		rdb := r.NewClient(&r.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		notifier = notify.New(rdb)
	} else {
		logger.Warn("REDIS_ADDR not set; notifications disabled")
	}

	orchestrator := accept.New(
		repository.NewJobs(st),
		repository.NewBids(st),
		repository.NewConversations(st),
		st,
		notifier,
		logger,
	)

	rtr := chi.NewRouter()
	rtr.Mount("/", httpapi.NewHandler(orchestrator, logger).Routes())

	logger.Info("listening", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
	if err := http.ListenAndServe(cfg.HTTPAddr, rtr); err != nil {
		logger.Error("serve", "error", err)
		os.Exit(1)
	}
}
