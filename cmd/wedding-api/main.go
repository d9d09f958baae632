package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/masdikaaa/wedding-invitation/internal/config"
	"github.com/masdikaaa/wedding-invitation/internal/database"
	"github.com/masdikaaa/wedding-invitation/internal/logging"
	"github.com/masdikaaa/wedding-invitation/internal/mail"
	"github.com/masdikaaa/wedding-invitation/internal/rsvp"
	"github.com/masdikaaa/wedding-invitation/internal/server"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wedding-api",
		Short: "Wedding invitation RSVP backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("environment", defaults.GetString("environment"), "Runtime environment (production, development)")
	cmd.PersistentFlags().String("database-driver", defaults.GetString("database.driver"), "Database driver (mysql, sqlite)")
	cmd.PersistentFlags().String("database-host", defaults.GetString("database.host"), "MySQL host")
	cmd.PersistentFlags().Int("database-port", defaults.GetInt("database.port"), "MySQL port")
	cmd.PersistentFlags().String("database-name", defaults.GetString("database.name"), "MySQL database name")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("admin-token", "", "Admin bearer token (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "environment", "environment")
	bindFlag(cmd, "database.driver", "database-driver")
	bindFlag(cmd, "database.host", "database-host")
	bindFlag(cmd, "database.port", "database-port")
	bindFlag(cmd, "database.name", "database-name")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "admin.token", "admin-token")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	// An explicitly requested config file must be readable; without one the
	// server runs on env vars, flags and defaults.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		return err
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.Open(appConfig, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	notifier := mail.NewNotifier(mail.Config{
		Host:       appConfig.SMTPHost,
		Port:       appConfig.SMTPPort,
		Username:   appConfig.SMTPUsername,
		Password:   appConfig.SMTPPassword,
		From:       appConfig.MailFrom,
		Recipients: appConfig.MailRecipients,
		Logger:     logger,
	})

	rsvpService, err := rsvp.NewService(rsvp.ServiceConfig{
		Database: db,
		Clock:    time.Now,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		RSVPService:   rsvpService,
		StoragePinger: database.NewPinger(db),
		AdminToken:    appConfig.AdminToken,
		Production:    appConfig.IsProduction(),
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
