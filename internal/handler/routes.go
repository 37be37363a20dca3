package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/testforge-dev/procrun/config"
	"github.com/testforge-dev/procrun/internal/server"
)

func NewExecuteRoute(handler *ExecHandler) server.HttpHandlerResult {
	return server.AsHttpHandler("/execute", handler)
}

func NewRpcRoute(rpcServer *rpc.Server, cfg config.Config) server.HttpHandlerResult {
	return server.AsHttpHandler("/rpc", withApiKey(cfg.Auth.Key, rpcServer))
}

func NewHealthRoute() server.HttpHandlerResult {
	return server.AsHttpHandler("/health", http.HandlerFunc(HealthHandler))
}

// withApiKey guards a route with the configured api key. An empty key
// disables the check.
func withApiKey(key string, next http.Handler) http.Handler {
	if key == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != key {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
