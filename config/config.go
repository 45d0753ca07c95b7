// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package config loads client settings from a YAML file, environment
// variables and command line flags, and applies them to a
// gsclient.Client.
//
// Keys are dotted, for example "events.hold". The environment variable
// for a key is its upper-cased name with dots replaced by underscores
// and prefixed with GSCLIENT_, for example GSCLIENT_EVENTS_HOLD.
// Flags take precedence over the environment, which takes precedence
// over the file.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogama/gsclient"
	"github.com/gogama/gsclient/timeout"
	"go.uber.org/zap/zapcore"
)

// Config holds every client setting.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	API      APIConfig      `mapstructure:"api"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Events   EventsConfig   `mapstructure:"events"`
	Log      LogConfig      `mapstructure:"log"`
	Watchdog WatchdogConfig `mapstructure:"watchdog"`
}

// ServerConfig selects the backend. A non-empty URL overrides Env.
type ServerConfig struct {
	Env           string `mapstructure:"env"`
	URL           string `mapstructure:"url"`
	LoadBalancers int    `mapstructure:"load_balancers"`
}

type APIConfig struct {
	Key        string `mapstructure:"key"`
	Secret     string `mapstructure:"secret"`
	SDKVersion string `mapstructure:"sdk_version"`
}

type HTTPConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// Timeout bounds attempts of requests which do not set their own.
	// Zero means no bound.
	Timeout time.Duration `mapstructure:"timeout"`
	Verbose bool          `mapstructure:"verbose"`
}

type EventsConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	Hold           time.Duration `mapstructure:"hold"`
	AdminHold      time.Duration `mapstructure:"admin_hold"`
	RecoverTimeout time.Duration `mapstructure:"recover_timeout"`
	ResumeJitter   time.Duration `mapstructure:"resume_jitter"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type WatchdogConfig struct {
	// After is the watchdog period. Zero disables the watchdog.
	After time.Duration `mapstructure:"after"`
}

// Default returns the default settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Env: gsclient.Sandbox.Name,
		},
		HTTP: HTTPConfig{
			ConnectTimeout: gsclient.DefaultConnectTimeout,
		},
		Events: EventsConfig{
			Timeout:        gsclient.DefaultEventTimeout,
			Hold:           gsclient.DefaultEventHold,
			AdminHold:      gsclient.DefaultAdminEventHold,
			RecoverTimeout: gsclient.DefaultEventRecoverTimeout,
			ResumeJitter:   gsclient.DefaultResumeJitter,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

var errNegative = errors.New("must not be negative")

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		if _, err := gsclient.LookupEnvironment(c.Server.Env); err != nil {
			return fmt.Errorf("server.env: %w", err)
		}
	}
	if c.Server.LoadBalancers < 0 {
		return fmt.Errorf("server.load_balancers: %w", errNegative)
	}
	durations := []struct {
		key string
		d   time.Duration
	}{
		{"http.connect_timeout", c.HTTP.ConnectTimeout},
		{"http.timeout", c.HTTP.Timeout},
		{"events.timeout", c.Events.Timeout},
		{"events.hold", c.Events.Hold},
		{"events.admin_hold", c.Events.AdminHold},
		{"events.recover_timeout", c.Events.RecoverTimeout},
		{"watchdog.after", c.Watchdog.After},
	}
	for _, d := range durations {
		if d.d < 0 {
			return fmt.Errorf("%s: %w", d.key, errNegative)
		}
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Level returns the parsed log level.
func (c *Config) Level() (zapcore.Level, error) {
	return zapcore.ParseLevel(c.Log.Level)
}

// Apply copies the settings into cl, which must not be in use yet.
func (c *Config) Apply(cl *gsclient.Client) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.Server.URL != "" {
		cl.BaseURL = c.Server.URL
		cl.LoadBalancers = c.Server.LoadBalancers
	} else {
		env, _ := gsclient.LookupEnvironment(c.Server.Env)
		cl.BaseURL = env.BaseURL
		cl.LoadBalancers = env.LoadBalancers
		if c.Server.LoadBalancers > 0 {
			cl.LoadBalancers = c.Server.LoadBalancers
		}
	}

	if c.API.Key != "" || c.API.Secret != "" {
		cl.Credentials = &gsclient.Credentials{
			APIKey:     c.API.Key,
			APISecret:  c.API.Secret,
			SDKVersion: c.API.SDKVersion,
		}
	}

	cl.ConnectTimeout = c.HTTP.ConnectTimeout
	if c.HTTP.Timeout > 0 {
		cl.TimeoutPolicy = timeout.FromRequest(timeout.Fixed(c.HTTP.Timeout))
	}
	cl.Verbose = c.HTTP.Verbose
	cl.Events = gsclient.EventOptions{
		Timeout:        c.Events.Timeout,
		Hold:           c.Events.Hold,
		AdminHold:      c.Events.AdminHold,
		RecoverTimeout: c.Events.RecoverTimeout,
		ResumeJitter:   c.Events.ResumeJitter,
	}
	cl.Watchdog = c.Watchdog.After
	return nil
}
