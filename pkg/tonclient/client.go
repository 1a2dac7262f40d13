// Package tonclient talks to the custodial TON wallet service and the chain indexer over HTTP.
package tonclient

import (
	"time"

	"github.com/go-resty/resty/v2"
)

const apiKeyHeader = "X-API-Key"

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func newRestClient(cfg Config) *resty.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetHeader(apiKeyHeader, cfg.APIKey)
	}
	return client
}

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
