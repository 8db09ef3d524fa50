package httpserver

import (
	"net/http"
	"time"

	"landrec/internal/platform/config"
)

// New builds an HTTP server with sane defaults for this project.
func New(cfg config.Server, handler http.Handler) *http.Server {
	timeout := cfg.ReadHeaderTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: timeout,
	}
}
