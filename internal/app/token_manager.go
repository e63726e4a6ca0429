package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/campusops/enrolldesk/internal/models"
)

const (
	timeFormat     = "2006-01-02 15:04:05"
	operatorKeyTpl = "operator:%s" // operator:${name}
	tokenPrefix    = "ed-"
)

// TokenManager mints and inspects operator tokens in redis. It backs the
// tokenctl CLI; the server side only reads tokens through Auth.
type TokenManager struct {
	redis *redis.Client
}

func NewTokenManager(redis *redis.Client) *TokenManager {
	return &TokenManager{redis: redis}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

// FetchOrCreateOperatorToken returns the operator's token, minting a fresh
// one when none exists, and keeps usage stats on the same hash.
func (tm *TokenManager) FetchOrCreateOperatorToken(ctx context.Context, operator string) (*models.TokenInfo, bool, error) {
	key := fmt.Sprintf(operatorKeyTpl, operator)

	token, err := tm.redis.HGet(ctx, key, "token").Result()
	if err != nil && err != redis.Nil {
		return nil, false, fmt.Errorf("failed to check token: %w", err)
	}

	now := time.Now().UTC()
	isNewToken := false

	if err == redis.Nil {
		token, err = generateToken()
		if err != nil {
			return nil, false, fmt.Errorf("failed to generate token: %w", err)
		}

		pipe := tm.redis.Pipeline()
		pipe.HSet(ctx, key, map[string]interface{}{
			"token":                 token,
			"request_count":         1,
			"last_request_dttm_utc": now.Format(timeFormat),
			"created_dttm_utc":      now.Format(timeFormat),
		})

		if _, err := pipe.Exec(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to create token: %w", err)
		}

		isNewToken = true
	} else {
		pipe := tm.redis.Pipeline()
		pipe.HIncrBy(ctx, key, "request_count", 1)
		pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))

		if _, err := pipe.Exec(ctx); err != nil {
			return nil, false, fmt.Errorf("failed to update token stats: %w", err)
		}
	}

	values, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get token info: %w", err)
	}

	lastReqTime, _ := time.Parse(timeFormat, values["last_request_dttm_utc"])
	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
	reqCount, _ := strconv.Atoi(values["request_count"])

	return &models.TokenInfo{
		Token:           values["token"],
		RequestCount:    reqCount,
		LastRequestTime: lastReqTime,
		CreatedTime:     createdTime,
	}, isNewToken, nil
}

// RevokeOperatorToken drops the operator's token hash entirely.
func (tm *TokenManager) RevokeOperatorToken(ctx context.Context, operator string) error {
	key := fmt.Sprintf(operatorKeyTpl, operator)
	return tm.redis.Del(ctx, key).Err()
}

// ListOperators enumerates operators that currently hold a token.
func (tm *TokenManager) ListOperators(ctx context.Context) ([]string, error) {
	// FIXME: scans are expensive
	prefix := strings.TrimSuffix(operatorKeyTpl, "%s")
	iter := tm.redis.Scan(ctx, 0, prefix+"*", 0).Iterator()

	var operators []string
	for iter.Next(ctx) {
		operators = append(operators, strings.TrimPrefix(iter.Val(), prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list operators: %w", err)
	}

	return operators, nil
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}
