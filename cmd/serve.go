/*
Copyright © 2024 Dean
*/
package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	httpHdlr "evalviewer/handler/http"
	"evalviewer/src/core/navigation"
	"evalviewer/src/log"
	"evalviewer/src/storage/postgres/sessionctrl"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the eval browser server",
	Long:  `The serve command starts an HTTP server answering browse requests over the eval registry and its samples.`,
	RunE:  RunServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func RunServer(cmd *cobra.Command, args []string) error {
	session, err := httpHdlr.NewSessionMiddleware(viper.GetString("session.cookie_name"), []byte(viper.GetString("session.secret")))
	if err != nil {
		return fmt.Errorf("%w (set SESSION_SECRET)", err)
	}

	completer, err := newCompleter()
	if err != nil {
		return fmt.Errorf("failed to initialize completion provider: %w", err)
	}

	var sessions navigation.SessionStore
	switch store := viper.GetString("session.store"); store {
	case "memory":
		sessions = navigation.NewMemoryStore()
	case "postgres":
		db, err := openDB()
		if err != nil {
			return err
		}
		defer closeDB(db)
		sessions = sessionctrl.NewStore(db)
	default:
		return fmt.Errorf("unknown session store %q", store)
	}

	handler := httpHdlr.NewHandler(newBrowserService(completer), sessions, session)

	// Setup gin router
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	// Register routes
	handler.RegisterRoutes(r)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("server.port"),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, "Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Parse shutdown timeout
	timeout, err := time.ParseDuration(viper.GetString("server.shutdown_timeout"))
	if err != nil {
		log.Error(err, "Invalid shutdown timeout, using default 5s")
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "Server forced to shutdown")
	}

	log.Info("Server exited")
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("Request served",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
