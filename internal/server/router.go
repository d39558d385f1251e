package server

import (
	"net/http"
	"takurating/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// NewRouter mounts the RPC service and the REST mirror behind request id
// logging and CORS.
func NewRouter(rpc *RatingServer, rest *REST, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID(logger))

	path, handler := NewRatingServiceHandler(rpc)
	r.PathPrefix(path).Handler(handler)
	rest.Register(r)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
	})
	return c.Handler(r)
}
