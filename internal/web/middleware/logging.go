package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/matchlobby/internal/middleware"
)

// Logging creates logging middleware for the game endpoint
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}
