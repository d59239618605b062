package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"github.com/sonirico/wssession"
)

const (
	defaultEndpoint = "ws://localhost:8080"
	defaultMessage  = "Hello from Java!"
	defaultHold     = 5 * time.Second
)

type demoConfig struct {
	Endpoint    string
	Message     string
	Hold        time.Duration
	OpenTimeout time.Duration
	LogLevel    zerolog.Level
	Headers     map[string]string
}

type fileConfig struct {
	Endpoint    string            `toml:"endpoint"`
	Message     string            `toml:"message"`
	Hold        string            `toml:"hold"`
	OpenTimeout string            `toml:"open_timeout"`
	LogLevel    string            `toml:"log_level"`
	Headers     map[string]string `toml:"headers"`
}

func defaultConfig() demoConfig {
	return demoConfig{
		Endpoint:    defaultEndpoint,
		Message:     defaultMessage,
		Hold:        defaultHold,
		OpenTimeout: wssession.DefaultOpenTimeout,
		LogLevel:    zerolog.InfoLevel,
		Headers:     map[string]string{},
	}
}

// loadConfigFile overlays the keys present in the TOML file at path onto cfg.
func loadConfigFile(path string, cfg demoConfig) (demoConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return demoConfig{}, fmt.Errorf("load wsdemo config: %w", err)
	}

	if meta.IsDefined("endpoint") {
		cfg.Endpoint = strings.TrimSpace(raw.Endpoint)
	}

	if meta.IsDefined("message") {
		cfg.Message = raw.Message
	}

	if meta.IsDefined("hold") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Hold))
		if err != nil {
			return demoConfig{}, fmt.Errorf("parse hold: %w", err)
		}
		cfg.Hold = d
	}

	if meta.IsDefined("open_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.OpenTimeout))
		if err != nil {
			return demoConfig{}, fmt.Errorf("parse open_timeout: %w", err)
		}
		cfg.OpenTimeout = d
	}

	if meta.IsDefined("log_level") {
		lvl, err := zerolog.ParseLevel(strings.TrimSpace(raw.LogLevel))
		if err != nil {
			return demoConfig{}, fmt.Errorf("parse log_level: %w", err)
		}
		cfg.LogLevel = lvl
	}

	if meta.IsDefined("headers") {
		headers := make(map[string]string, len(cfg.Headers)+len(raw.Headers))
		for k, v := range cfg.Headers {
			headers[k] = v
		}
		cfg.Headers = headers
		for k, v := range raw.Headers {
			cfg.Headers[k] = v
		}
	}

	return cfg, nil
}

// parseHeader splits a "Key=Value" flag value.
func parseHeader(raw string) (string, string, error) {
	key, value, ok := strings.Cut(raw, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", "", fmt.Errorf("invalid header %q, expected key=value", raw)
	}
	return key, strings.TrimSpace(value), nil
}
