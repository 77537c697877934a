/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retro-admin/dashboard/internal/activity"
	"github.com/retro-admin/dashboard/internal/mq"
	"github.com/retro-admin/dashboard/internal/server"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consumes activity events and writes them to the backend",
	Long: `Consumes activity events published by the dashboard on MQ_ACTIVITY_CHANNEL
and records them in the configured backend's activity log. Usage:

	MQ_DRIVER=rabbitmq dashboard worker
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		switch cfg.MQ.Driver {
		case "":
			return errors.New("MQ_DRIVER is required")
		case mq.DriverMemory:
			return errors.New("the memory broker is in-process; the server drains it itself")
		}

		backend, err := server.OpenBackend(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer backend.Close()

		queue, err := mq.Open(cmd.Context(), cfg.MQ)
		if err != nil {
			return err
		}
		defer queue.Close()

		logger.Info("activity worker started",
			zap.String("backend", backend.Name()),
			zap.String("mq", cfg.MQ.Driver),
			zap.String("channel", cfg.MQ.ActivityChannel),
		)
		worker := activity.NewWorker(queue, cfg.MQ.ActivityChannel, server.ActivitySink(backend, logger), logger)
		if err := worker.Run(cmd.Context()); err != nil {
			logger.Error("worker error", zap.Error(err))
			return err
		}
		logger.Info("activity worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
