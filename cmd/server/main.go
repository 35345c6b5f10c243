/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine service: SQLite store, HTTP
  API, and the background run scheduler, with graceful shutdown.

COMMAND-LINE FLAGS:
  -port      HTTP server port (default: 8080)
  -db        SQLite database path (default: payroll.db)
             Use ":memory:" for an in-memory database
  -interval  Scheduler check interval (default: 24h)
  -budget    Wall-clock budget per payroll run (default: none)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler (waits for an in-flight tick)
  2. Stop accepting new connections, drain active requests (30s)
  3. Close the database connection

SEE ALSO:
  - api/server.go: router configuration
  - api/scheduler.go: background scheduler
  - store/sqlite/sqlite.go: database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/carebridge/payroll-engine/api"
	"github.com/carebridge/payroll-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "payroll.db", "SQLite database path")
	interval := flag.Duration("interval", 24*time.Hour, "scheduler check interval")
	budget := flag.Duration("budget", 0, "wall-clock budget per payroll run (0 = none)")
	flag.Parse()

	log := logrus.StandardLogger()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.JSONFormatter{})

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	handler := api.NewHandler(store)
	handler.Engine.Budget = *budget

	scheduler := api.NewPayrollScheduler(handler)
	scheduler.CheckInterval = *interval
	scheduler.Start()
	defer scheduler.Stop()

	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("port", *port).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
