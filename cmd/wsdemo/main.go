// Command wsdemo opens one WebSocket session, waits for the handshake, sends a single message,
// keeps the connection around for a while and closes it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/sonirico/wssession"
	"github.com/urfave/cli/v3"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: cannot load .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "wsdemo: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "wsdemo",
		Usage: "connect, send one message, hold, close",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "optional TOML file with endpoint, message, hold, open_timeout, log_level and headers",
				Sources: cli.EnvVars("WSDEMO_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "endpoint",
				Value:   defaultEndpoint,
				Usage:   "ws:// or wss:// URL to connect to",
				Sources: cli.EnvVars("WSDEMO_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "message",
				Value:   defaultMessage,
				Usage:   "text message sent once the connection is open",
				Sources: cli.EnvVars("WSDEMO_MESSAGE"),
			},
			&cli.DurationFlag{
				Name:    "hold",
				Value:   defaultHold,
				Usage:   "how long to keep the connection open after sending",
				Sources: cli.EnvVars("WSDEMO_HOLD"),
			},
			&cli.DurationFlag{
				Name:    "open-timeout",
				Value:   wssession.DefaultOpenTimeout,
				Usage:   "how long to wait for the handshake, 0 waits forever",
				Sources: cli.EnvVars("WSDEMO_OPEN_TIMEOUT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   zerolog.InfoLevel.String(),
				Usage:   "trace, debug, info, warn or error",
				Sources: cli.EnvVars("WSDEMO_LOG_LEVEL"),
			},
			&cli.StringSliceFlag{
				Name:  "header",
				Usage: "extra handshake header as key=value, repeatable",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			logger := zerolog.New(zerolog.ConsoleWriter{
				Out:        os.Stdout,
				TimeFormat: time.RFC3339,
			}).Level(cfg.LogLevel).With().Timestamp().Str("app", "wsdemo").Logger()

			return run(ctx, cfg, logger, wssession.NewWebsocketTransportFactory(
				wssession.NewZerologLogger(logger),
				nil,
			))
		},
	}
}

// resolveConfig layers explicit flags over the config file over the defaults.
func resolveConfig(cmd *cli.Command) (demoConfig, error) {
	cfg := defaultConfig()

	if path := cmd.String("config"); path != "" {
		var err error
		if cfg, err = loadConfigFile(path, cfg); err != nil {
			return demoConfig{}, err
		}
	}

	if cmd.IsSet("endpoint") {
		cfg.Endpoint = cmd.String("endpoint")
	}
	if cmd.IsSet("message") {
		cfg.Message = cmd.String("message")
	}
	if cmd.IsSet("hold") {
		cfg.Hold = cmd.Duration("hold")
	}
	if cmd.IsSet("open-timeout") {
		cfg.OpenTimeout = cmd.Duration("open-timeout")
	}
	if cmd.IsSet("log-level") {
		lvl, err := zerolog.ParseLevel(cmd.String("log-level"))
		if err != nil {
			return demoConfig{}, fmt.Errorf("parse log-level: %w", err)
		}
		cfg.LogLevel = lvl
	}
	for _, raw := range cmd.StringSlice("header") {
		key, value, err := parseHeader(raw)
		if err != nil {
			return demoConfig{}, err
		}
		cfg.Headers[key] = value
	}

	return cfg, nil
}

// run is the whole demo: connect, wait for the handshake, send, hold, close.
func run(ctx context.Context, cfg demoConfig, logger zerolog.Logger, factory wssession.TransportFactory) error {
	opts := []wssession.Option{
		wssession.WithLogger(wssession.NewZerologLogger(logger)),
		wssession.WithOpenTimeout(cfg.OpenTimeout),
		wssession.WithMessageHandler(func(_ *wssession.Coordinator, m wssession.Message) {
			if !m.Type().IsData() {
				logger.Debug().Msgf("received %s frame", m.Type())
				return
			}
			logger.Info().Msgf("Received: %s", m.Text())
		}),
	}
	for k, v := range cfg.Headers {
		opts = append(opts, wssession.WithHeader(k, v))
	}

	session, err := wssession.New(factory, opts...)
	if err != nil {
		return err
	}

	closed := make(chan struct{})
	session.On(wssession.EventOpen, func(wssession.Event) {
		logger.Info().Msg("Connected to WebSocket server")
	})
	session.On(wssession.EventClose, func(e wssession.Event) {
		logger.Info().Int("code", e.Code).Bool("remote", e.Remote).Msgf("Connection closed: %s", e.Reason)
		if e.Remote {
			close(closed)
		}
	})
	session.On(wssession.EventError, func(e wssession.Event) {
		logger.Error().Err(e.Err).Msg("WebSocket error")
	})

	if err := session.Connect(ctx, cfg.Endpoint); err != nil {
		return err
	}
	defer session.Close("client done")

	if err := session.AwaitOpen(ctx); err != nil {
		return err
	}

	if err := session.Send(cfg.Message); err != nil {
		return err
	}

	hold := time.NewTimer(cfg.Hold)
	defer hold.Stop()

	select {
	case <-hold.C:
	case <-closed:
		logger.Info().Msg("server closed the connection")
	case <-ctx.Done():
		logger.Info().Msg("interrupt received, closing connection")
	}

	return session.Close("client done")
}
