// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by a Loader.
const EnvPrefix = "GSCLIENT"

// A Loader reads a Config from its sources.
type Loader struct {
	v    *viper.Viper
	lock sync.Mutex
}

// NewLoader returns a Loader with every key defaulted from Default and
// environment overrides enabled.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults(Default()) {
		v.SetDefault(key, value)
	}
	return &Loader{v: v}
}

func defaults(c *Config) map[string]interface{} {
	return map[string]interface{}{
		"server.env":             c.Server.Env,
		"server.url":             c.Server.URL,
		"server.load_balancers":  c.Server.LoadBalancers,
		"api.key":                c.API.Key,
		"api.secret":             c.API.Secret,
		"api.sdk_version":        c.API.SDKVersion,
		"http.connect_timeout":   c.HTTP.ConnectTimeout,
		"http.timeout":           c.HTTP.Timeout,
		"http.verbose":           c.HTTP.Verbose,
		"events.timeout":         c.Events.Timeout,
		"events.hold":            c.Events.Hold,
		"events.admin_hold":      c.Events.AdminHold,
		"events.recover_timeout": c.Events.RecoverTimeout,
		"events.resume_jitter":   c.Events.ResumeJitter,
		"log.level":              c.Log.Level,
		"watchdog.after":         c.Watchdog.After,
	}
}

// FlagSet returns a flag set with one flag per key, named after the
// key. Parse it and hand it to BindFlags.
func FlagSet(name string) *pflag.FlagSet {
	d := Default()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("server.env", d.Server.Env, "preset environment (sandbox or prod)")
	fs.String("server.url", d.Server.URL, "base URL template, overrides server.env")
	fs.Int("server.load_balancers", d.Server.LoadBalancers, "number of load balancers behind server.url")
	fs.String("api.key", d.API.Key, "application key")
	fs.String("api.secret", d.API.Secret, "application secret")
	fs.String("api.sdk_version", d.API.SDKVersion, "value of the x-sdkversion header")
	fs.Duration("http.connect_timeout", d.HTTP.ConnectTimeout, "connection establishment timeout")
	fs.Duration("http.timeout", d.HTTP.Timeout, "default attempt timeout, 0 for none")
	fs.Bool("http.verbose", d.HTTP.Verbose, "log every attempt")
	fs.Duration("events.timeout", d.Events.Timeout, "long-poll timeout")
	fs.Duration("events.hold", d.Events.Hold, "pause after a failed poll")
	fs.Duration("events.admin_hold", d.Events.AdminHold, "pause after a failed poll of the admin domain")
	fs.Duration("events.recover_timeout", d.Events.RecoverTimeout, "admin domain poll timeout after a failure")
	fs.Duration("events.resume_jitter", d.Events.ResumeJitter, "bound of the random delay after resume, negative to disable")
	fs.String("log.level", d.Log.Level, "log level")
	fs.Duration("watchdog.after", d.Watchdog.After, "callback queue watchdog period, 0 to disable")
	return fs
}

// BindFlags makes the flags of fs override every other source. Only
// flags set on the command line take effect.
func (l *Loader) BindFlags(fs *pflag.FlagSet) error {
	l.lock.Lock()
	defer l.lock.Unlock()
	if err := l.v.BindPFlags(fs); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	return nil
}

// Load reads the YAML file at path, if path is not empty, and returns
// the validated settings.
func (l *Loader) Load(path string) (*Config, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return l.current()
}

func (l *Loader) current() (*Config, error) {
	var c Config
	if err := l.v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Watch calls fn with the new settings, or the error reading them,
// whenever the file passed to Load changes. The previous settings stay
// in effect when fn receives an error.
func (l *Loader) Watch(fn func(*Config, error)) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		l.lock.Lock()
		c, err := l.current()
		l.lock.Unlock()
		fn(c, err)
	})
	l.v.WatchConfig()
}
