package database

import (
	"fmt"
	"net/url"

	"github.com/lucasmv/marketbot/internal/config"
)

// BuildConnString builds a PostgreSQL connection string from config.
// config.applyDefaults normally fills ssl_mode; the fallback here keeps the
// function total for callers that skip the defaults pass.
func BuildConnString(cfg config.DBConfig) string {
	// URL-encode password to handle special characters
	escapedPassword := url.QueryEscape(cfg.Password)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User,
		escapedPassword,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		sslMode,
	)
}
