// tokenctl mints, lists and revokes operator tokens for the admin API.
package main

import (
	"context"
	"flag"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/campusops/enrolldesk/internal/app"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "Path to config file")
		operator   = flag.String("operator", "", "Operator name to mint or revoke a token for")
		revoke     = flag.Bool("revoke", false, "Revoke instead of mint")
		list       = flag.Bool("list", false, "List operators holding tokens")
	)
	flag.Parse()

	config, err := app.LoadConfig(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		logger.Error.Fatalf("Failed to parse redis URL: %v", err)
	}

	tm := app.NewTokenManager(redis.NewClient(opt))
	defer tm.Close()

	ctx := context.Background()

	switch {
	case *list:
		operators, err := tm.ListOperators(ctx)
		if err != nil {
			logger.Error.Fatalf("Failed to list operators: %v", err)
		}
		for _, name := range operators {
			logger.Info.Println(name)
		}
	case *revoke:
		if *operator == "" {
			logger.Error.Fatalf("-revoke requires -operator")
		}
		if err := tm.RevokeOperatorToken(ctx, *operator); err != nil {
			logger.Error.Fatalf("Failed to revoke token: %v", err)
		}
		logger.Info.Printf("Revoked token for %s", *operator)
	default:
		if *operator == "" {
			logger.Error.Fatalf("Need -operator, -revoke or -list")
		}
		info, fresh, err := tm.FetchOrCreateOperatorToken(ctx, *operator)
		if err != nil {
			logger.Error.Fatalf("Failed to fetch token: %v", err)
		}
		if fresh {
			logger.Info.Printf("Minted new token for %s: %s", *operator, info.Token)
		} else {
			logger.Info.Printf("Existing token for %s: %s (used %d times)", *operator, info.Token, info.RequestCount)
		}
	}
}
