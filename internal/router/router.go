package router

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"metrics-tags-app/internal/endpoints"
	"metrics-tags-app/internal/resolver"
	"metrics-tags-app/internal/util"
)

func NewRouter(res *resolver.Resolver, webSlogger *util.ServiceLogger) *mux.Router {
	r := mux.NewRouter()

	addRoutes(r, res, webSlogger)

	r.Use(loggingMiddleware(webSlogger))

	return r
}

func addRoutes(r *mux.Router, res *resolver.Resolver, webSlogger *util.ServiceLogger) {

	tagsHandler := &endpoints.Tags{}
	tagsHandler.Init(res, webSlogger)

	r.HandleFunc("/organizations/{organization}/metrics/tags", tagsHandler.GetMetricsTagsHandler).Methods("GET")
}

func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func Run(addr string, res *resolver.Resolver, webSlogger *util.ServiceLogger) {
	appRouter := NewRouter(res, webSlogger)

	server := NewServer(addr, appRouter)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		println()
		log.Println("Shutting down server...")

		err := gracefulShutdown(server, 25*time.Second)

		if err != nil {
			log.Printf("Server stopped with error: %s", err.Error())
		} else {
			log.Println("Server stopped gracefully.")
		}

		os.Exit(0)
	}()

	log.Printf("Listening on %s", server.Addr)
	log.Fatal(server.ListenAndServe())
}

func gracefulShutdown(server *http.Server, maximumTime time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), maximumTime)
	defer cancel()

	return server.Shutdown(ctx)
}

func loggingMiddleware(logger *util.ServiceLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogEvent(util.LOG_LEVEL_INFO, fmt.Sprintf("Request: %s %s", r.Method, r.RequestURI))
			next.ServeHTTP(w, r)
		})
	}
}
