package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Tomlord1122/todo-server/internal/auth"
	"github.com/Tomlord1122/todo-server/internal/config"
	"github.com/Tomlord1122/todo-server/internal/database"
	"github.com/Tomlord1122/todo-server/internal/logging"
	"github.com/Tomlord1122/todo-server/internal/repository"
	"github.com/Tomlord1122/todo-server/internal/server"
	"github.com/Tomlord1122/todo-server/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the todo API and pages",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("migrate", false, "run database migrations before serving")
}

func gracefulShutdown(apiServer *http.Server, dbService database.Service, log *logrus.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	// The server has 5 seconds to finish the requests it is handling.
	ctxTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctxTimeout); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	log.Info("Closing database connection pool...")
	if err := dbService.Close(); err != nil {
		log.WithError(err).Error("Error closing database connection pool")
	}

	log.Info("Server exiting")
	done <- true
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(v)
	if err != nil {
		return pkgerrors.Wrap(err, "load config")
	}
	log := logging.New(cfg.Log)

	migrate, _ := cmd.Flags().GetBool("migrate")
	dbService, todoRepo, userRepo, err := openStore(cfg, log, migrate)
	if err != nil {
		return err
	}

	sessions := auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.SecureCookie)
	authService, err := service.NewAuthService(userRepo, sessions)
	if err != nil {
		return pkgerrors.Wrap(err, "init auth service")
	}

	apiServer := server.NewServer(server.Options{
		Port:           cfg.Port,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		TodoService:    service.NewTodoService(todoRepo),
		AuthService:    authService,
		Sessions:       sessions,
		DB:             dbService,
		Logger:         log,
	})

	done := make(chan bool, 1)
	go gracefulShutdown(apiServer, dbService, log, done)

	log.WithField("store", cfg.Store).Infof("Starting server on %s", apiServer.Addr)
	err = apiServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return pkgerrors.Wrap(err, "http server")
	}

	<-done
	log.Info("Graceful shutdown complete.")
	return nil
}

// openStore wires the repositories for the configured store.
func openStore(cfg *config.Config, log *logrus.Logger, migrate bool) (database.Service, repository.TodoRepository, repository.UserRepository, error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("Using in-memory store; data is lost on restart")
		mem := repository.NewMemoryStore()
		return database.NewMemory(), mem.Todos(), mem.Users(), nil
	}

	dbService, err := database.New(cfg.Database, log)
	if err != nil {
		return nil, nil, nil, pkgerrors.Wrap(err, "connect to database")
	}
	gormDB := dbService.GetDB()

	if migrate {
		log.Info("Running database auto-migration...")
		if err := database.Migrate(gormDB); err != nil {
			dbService.Close()
			return nil, nil, nil, err
		}
		log.Info("Database auto-migration complete.")
	}

	return dbService, repository.NewGormTodoRepository(gormDB), repository.NewGormUserRepository(gormDB), nil
}
