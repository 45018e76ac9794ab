package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"focusService/internal/engine"
)

func openDB(dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func backOff() {
	time.Sleep(2 * time.Second)
}

// engineConfigFromEnv builds the engine configuration from environment
// variables, keeping the engine defaults for anything unset.
func engineConfigFromEnv() engine.Config {
	cfg := engine.Config{}
	if m := envMinutes("FOCUS_DURATION_MINUTES"); m > 0 {
		cfg.DefaultFocusDuration = m
	}
	if m := envMinutes("BREAK_DURATION_MINUTES"); m > 0 {
		cfg.BreakDuration = m
	}
	if v := os.Getenv("AUTO_COMPLETE_ON_TARGET"); v == "true" || v == "1" {
		cfg.AutoCompleteOnTarget = true
	}
	return cfg
}

func envMinutes(name string) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Minute
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, errMsg, detail string) {
	writeJSON(w, status, ErrorResponse{Error: errMsg, Message: detail})
}
