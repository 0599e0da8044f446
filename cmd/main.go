package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/hermes-backend/internal/app"
	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
	"github.com/yungbote/hermes-backend/internal/services"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "hermes",
	Short:         "Hermes learning path backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	Version:       version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the job worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := app.New(ctx, version)
		if err != nil {
			return fmt.Errorf("init app: %w", err)
		}
		defer a.Close()
		return a.Run(ctx)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply schema migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		base, err := app.NewBase(cmd.Context())
		if err != nil {
			return err
		}
		defer base.Close()
		base.Log.Info("Migrations applied")
		return nil
	},
}

var tokenTTL time.Duration

// tokenCmd mints a bearer token for local development.
var tokenCmd = &cobra.Command{
	Use:   "token <user-id>",
	Short: "Issue a development bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("user id: %w", err)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		auth := services.NewAuthService(logger.Nop(), cfg.Auth)
		tok, err := auth.IssueToken(userID, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	rootCmd.AddCommand(serveCmd, migrateCmd, tokenCmd, catalogCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "hermes: %v\n", err)
		os.Exit(1)
	}
}
