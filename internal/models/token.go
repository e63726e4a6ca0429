package models

import (
	"time"
)

// TokenInfo describes an operator's admin-API token and its usage stats,
// as held in redis.
type TokenInfo struct {
	Token           string    `json:"token"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
}
