package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/onelinediary/server/internal/app"
	"github.com/onelinediary/server/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errRun := newRootCmd().ExecuteContext(ctx); errRun != nil {
		log.WithError(errRun).Error("command failed")
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:           "diary",
		Short:         "One-line diary API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if errEnv := godotenv.Load(); errEnv != nil && !errors.Is(errEnv, fs.ErrNotExist) {
				return errEnv
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (or env CONFIG_PATH)")

	loadConfig := func() (config.AppConfig, error) {
		appCfg, err := config.LoadFromEnv()
		if err != nil {
			return config.AppConfig{}, err
		}
		if strings.TrimSpace(cfgPath) != "" {
			appCfg.ConfigPath = config.ResolveConfigPath(cfgPath)
		}
		cfg, err := config.Load(appCfg.ConfigPath)
		if err != nil {
			return config.AppConfig{}, err
		}
		app.ConfigureLogging(cfg.Logging)
		return cfg, nil
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.Infof("using config %s", cfg.ConfigPath)
			return app.RunServer(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return app.Migrate(cmd.Context(), cfg)
		},
	}

	var initReq app.InitRequest
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write an initial config file and create the schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ResolveConfigPath(cfgPath)
			if strings.TrimSpace(cfgPath) == "" {
				path = config.ResolveConfigPath(os.Getenv(config.EnvConfigPath))
			}
			return app.Initialize(path, initReq)
		},
	}
	initCmd.Flags().StringVar(&initReq.DatabaseType, "db-type", "sqlite", "database type (sqlite or postgres)")
	initCmd.Flags().StringVar(&initReq.DatabasePath, "db-path", "diary.db", "sqlite database file")
	initCmd.Flags().StringVar(&initReq.DatabaseHost, "db-host", "localhost", "postgres host")
	initCmd.Flags().IntVar(&initReq.DatabasePort, "db-port", 5432, "postgres port")
	initCmd.Flags().StringVar(&initReq.DatabaseUser, "db-user", "", "postgres user")
	initCmd.Flags().StringVar(&initReq.DatabasePassword, "db-password", "", "postgres password")
	initCmd.Flags().StringVar(&initReq.DatabaseName, "db-name", "diary", "postgres database name")
	initCmd.Flags().StringVar(&initReq.DatabaseSSLMode, "db-sslmode", "disable", "postgres sslmode")
	initCmd.Flags().IntVar(&initReq.Port, "port", 3000, "HTTP port written to the config")
	initCmd.Flags().StringVar(&initReq.BaseURL, "base-url", "", "public base URL used for payment redirects")
	initCmd.Flags().StringVar(&initReq.Timezone, "timezone", "Asia/Seoul", "calendar timezone")

	root.AddCommand(serveCmd, migrateCmd, initCmd)
	return root
}
