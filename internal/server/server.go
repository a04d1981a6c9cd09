// Package server exposes the card lifecycle, suspension, and undo
// operations as a JSON API for the review client.
package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/palabra-app/palabra/internal/leech"
	"github.com/palabra-app/palabra/internal/undo"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB   *gorm.DB
	Port int
	Out  io.Writer

	// Undo history shared across requests for the session.
	Undo *undo.Stack

	// Leech policy applied on review commits.
	LeechThreshold int
	LeechAction    leech.Action
}

// Start launches the API server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("server: db is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	if opts.Undo == nil {
		opts.Undo = undo.NewStack(undo.DefaultCapacity)
	}
	if opts.LeechThreshold < 1 {
		opts.LeechThreshold = 8
	}
	if opts.LeechAction == "" {
		opts.LeechAction = leech.ActionPause
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	registerRoutes(router, &handlers{
		db:             opts.DB,
		undo:           opts.Undo,
		leechThreshold: opts.LeechThreshold,
		leechAction:    opts.LeechAction,
	})

	addr := fmt.Sprintf(":%d", opts.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API listening at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
