package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"voice-agent/internal/adapter/httpapi"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  "Serves the voice pipelines, session endpoints and synthesized audio over HTTP.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return runServe(ctx, cmd, flags, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address, overrides HTTP_ADDR")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, flags *globalFlags, addr string) error {
	a, err := build(ctx, flags, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if addr == "" {
		addr = a.cfg.HTTPAddr
	}
	gin.SetMode(gin.ReleaseMode)
	return httpapi.Start(ctx, httpapi.StartOpts{
		Options: httpapi.Options{
			Agent:       a.agent,
			Credentials: a.cfg.CredentialPreviews(),
			AudioDir:    a.cfg.AudioDir,
			Logger:      a.logger,
		},
		Addr: addr,
	})
}
