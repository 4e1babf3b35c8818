package env

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"go.uber.org/zap"
)

// Values holds process-level configuration. DB-backed per-community settings
// live in internal/settings; only knobs needed before the DB is open go here.
type Values struct {
	ServerPort      int
	DebugMode       bool
	SessionTTL      time.Duration
	ConfirmationTTL time.Duration
	GatewayURL      string
}

var Value = &Values{
	ServerPort:      8080,
	SessionTTL:      5 * time.Minute,
	ConfirmationTTL: 5 * time.Minute,
}

// LoadEnv reads .env (if present) and the process environment into Value.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Debug("No .env file loaded", zap.Error(err))
	}

	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			Value.ServerPort = port
		} else {
			logger.Warn("Invalid SERVER_PORT, keeping default", zap.String("value", v))
		}
	}

	Value.DebugMode = os.Getenv("DEBUG_MODE") == "true"

	if v := os.Getenv("SESSION_TTL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			Value.SessionTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("CONFIRMATION_TTL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			Value.ConfirmationTTL = time.Duration(secs) * time.Second
		}
	}

	Value.GatewayURL = os.Getenv("GATEWAY_URL")
}
