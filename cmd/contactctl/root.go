package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"contactlink/internal/contact/service"
	"contactlink/internal/contact/store"
	"contactlink/internal/platform/config"
	"contactlink/internal/platform/logger"
)

// env carries the opened store for one command invocation.
type env struct {
	cfg     config.Server
	logger  *slog.Logger
	backend *store.Backend
	service *service.Service
}

type opener func(ctx context.Context) (*env, error)

func newRootCmd() *cobra.Command {
	return newRootCmdWith(openFromEnv)
}

func newRootCmdWith(open opener) *cobra.Command {
	root := &cobra.Command{
		Use:   "contactctl",
		Short: "contact store maintenance tool",
		Example: `contactctl migrate
contactctl lookup --email doc@hillvalley.edu
contactctl lookup --phone 123456
contactctl integrity`,
		SilenceUsage: true,
	}
	root.AddCommand(migrateCmd(open), lookupCmd(open), integrityCmd(open))
	root.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	root.CompletionOptions.HiddenDefaultCmd = true
	return root
}

func openFromEnv(ctx context.Context) (*env, error) {
	cfg := config.FromEnv()
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	backend, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(backend.Tx, service.WithLogger(log))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return &env{cfg: cfg, logger: log, backend: backend, service: svc}, nil
}

func (e *env) Close() error {
	return e.backend.Close()
}
