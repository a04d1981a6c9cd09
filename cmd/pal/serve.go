package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/palabra-app/palabra/internal/jobs"
	"github.com/palabra-app/palabra/internal/leech"
	"github.com/palabra-app/palabra/internal/server"
	"github.com/palabra-app/palabra/internal/undo"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Palabra API server",
		Long:  "Launches the JSON API and the periodic job scheduler. Runs until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "palabra.yaml", "path to Palabra config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	out := cmd.OutOrStdout()

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(out, "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	sched := jobs.NewScheduler(gormDB, out)
	if err := sched.RegisterResumeExpired(cfg.Jobs.ResumeExpired); err != nil {
		return err
	}
	if err := sched.RegisterUnbury(cfg.Jobs.Unbury); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	return server.Start(ctx, server.StartOpts{
		DB:             gormDB,
		Port:           port,
		Out:            out,
		Undo:           undo.NewStack(cfg.Undo.Capacity),
		LeechThreshold: cfg.Leech.Threshold,
		LeechAction:    leech.Action(cfg.Leech.Action),
	})
}
