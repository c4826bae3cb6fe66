package server

import (
	"net/http"

	"springforge/internal/gateway/handler"
	"springforge/internal/gateway/handler/rpc"
	"springforge/internal/gateway/middleware"
)

func NewMux(
	httpHandler *handler.HTTPHandler,
	generatorHandler *rpc.GeneratorHandler,
	eventsHandler *rpc.EventsHandler,
	allowedOrigins []string,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(generatorHandler.Handler())

	// JSON API
	mux.HandleFunc("/generate", httpHandler.HandleGenerate)
	mux.HandleFunc("GET /health", httpHandler.HandleHealth)
	mux.HandleFunc("/", httpHandler.HandleInfo)
	mux.HandleFunc("GET /download/{name}", httpHandler.HandleDownload)
	mux.HandleFunc("GET /generations", httpHandler.HandleGenerations)

	// Streaming
	mux.HandleFunc("/ws/generations", eventsHandler.HandleEventsWS)

	// Middleware
	return middleware.CORS(allowedOrigins)(mux)
}
