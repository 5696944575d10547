// Command accept-lambda runs the acceptance endpoint as an AWS Lambda
// behind an API Gateway HTTP API with a JWT authorizer.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	r "github.com/redis/go-redis/v9"

	"github.com/jacentio/hirewire/accept"
	"github.com/jacentio/hirewire/handler"
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

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
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
	}

	orchestrator := accept.New(
		repository.NewJobs(st),
		repository.NewBids(st),
		repository.NewConversations(st),
		st,
		notifier,
		logger,
	)

	lambda.Start(handler.NewHandler(orchestrator, logger).HandleAcceptBid)
}
