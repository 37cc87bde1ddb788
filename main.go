package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"productapi/internal/config"
	"productapi/internal/logger"
	"productapi/internal/services"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = viper.New()

var rootCmd = &cobra.Command{
	Use:           "productapi",
	Short:         "Product catalogue HTTP service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply the schema and start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		return serve(cfg, log)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the product table if it does not exist, then exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		if cfg.DBDriver == config.DriverMemory {
			return fmt.Errorf("nothing to migrate for the memory driver")
		}
		st, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer st.close()
		return st.migrate()
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("port", "", "listen address, e.g. :5000 (env APP_PORT)")
	flags.String("db-driver", "", "sqlite, postgres or memory (env DB_DRIVER)")
	flags.String("db-dsn", "", "sqlite file path or postgres DSN (env DB_DSN)")
	flags.String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	bindFlag("APP_PORT", "port")
	bindFlag("DB_DRIVER", "db-driver")
	bindFlag("DB_DSN", "db-dsn")
	bindFlag("LOG_LEVEL", "log-level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bindFlag lets a flag override the environment only when it was set.
func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return config.Config{}, zerolog.Logger{}, err
	}
	return cfg, logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat), nil
}

func serve(cfg config.Config, log zerolog.Logger) error {
	st, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error().Err(err).Msg("error closing store")
		}
	}()

	// The schema is applied once, before the listener accepts traffic.
	if err := st.migrate(); err != nil {
		return err
	}

	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closePublisher(); err != nil {
			log.Error().Err(err).Msg("error closing RabbitMQ client")
		}
	}()

	productService := services.NewProductService(st.repo, publisher, log)
	app := NewApp(cfg, Dependencies{
		Products: productService,
		Ping:     st.ping,
		Log:      log,
	})

	listenErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.AppPort).Msg("starting server")
		listenErr <- app.Listen(cfg.AppPort)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	log.Info().Msg("server gracefully stopped")
	return nil
}
