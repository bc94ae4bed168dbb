// Package config holds the settings of the runkey command line tool.
//
// Values come from flags, RUNKEY_* environment variables and an optional
// config file, in that order of precedence, through spf13/viper. Library
// users can build Options directly instead.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/stokaro/runkey/core/platform"
)

// Keys shared by flags, environment variables and config files
const (
	KeyDatabaseURL = "database-url"
	KeyDialect     = "dialect"
	KeyIDCollation = "id-collation"
	KeyDryRun      = "dry-run"
	KeyLogLevel    = "log-level"
	KeyLogFormat   = "log-format"
)

// EnvPrefix is prepended to every key to form its environment variable,
// e.g. RUNKEY_DATABASE_URL.
const EnvPrefix = "RUNKEY"

const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ErrNoDatabase is returned when neither a database URL nor a dry-run
// dialect is configured.
var ErrNoDatabase = errors.New("a database URL is required unless rendering SQL for a dialect")

// Options contains everything a runkey command needs
type Options struct {
	// DatabaseURL selects the driver by its scheme, e.g. postgres://...
	DatabaseURL string
	// Dialect is the engine to render SQL for when DryRun is set. It is
	// ignored when connecting, where the URL scheme decides.
	Dialect string
	// IDCollation overrides the collation of identifier columns.
	IDCollation string
	// DryRun renders SQL instead of executing it
	DryRun    bool
	LogLevel  string
	LogFormat string
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() *Options {
	return &Options{
		Dialect:   platform.Postgres,
		LogLevel:  "info",
		LogFormat: LogFormatText,
	}
}

// NewViper returns a viper instance with defaults and environment lookup
// set up. A non-empty configFile is read as well.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	defaults := DefaultOptions()
	v.SetDefault(KeyDialect, defaults.Dialect)
	v.SetDefault(KeyLogLevel, defaults.LogLevel)
	v.SetDefault(KeyLogFormat, defaults.LogFormat)
	v.SetDefault(KeyDryRun, defaults.DryRun)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}
	return v, nil
}

// FromViper reads Options from v
func FromViper(v *viper.Viper) (*Options, error) {
	opts := &Options{
		DatabaseURL: v.GetString(KeyDatabaseURL),
		Dialect:     platform.NormalizeDialect(v.GetString(KeyDialect)),
		IDCollation: v.GetString(KeyIDCollation),
		DryRun:      v.GetBool(KeyDryRun),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFormat:   strings.ToLower(v.GetString(KeyLogFormat)),
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate checks that the options can be acted on
func (o *Options) Validate() error {
	if o.DatabaseURL == "" && !o.DryRun {
		return ErrNoDatabase
	}
	if o.DryRun && o.Dialect == "" {
		return fmt.Errorf("%w: no dialect set", ErrNoDatabase)
	}
	if _, err := o.level(); err != nil {
		return err
	}
	switch o.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("unsupported log format %q, use %s or %s", o.LogFormat, LogFormatText, LogFormatJSON)
	}
	return nil
}

// IDCollationFor returns the identifier collation for dialect: the
// configured one if set, the engine default otherwise.
func (o *Options) IDCollationFor(dialect string) string {
	if o.IDCollation != "" {
		return o.IDCollation
	}
	return platform.DefaultIDCollation(dialect)
}

// Logger builds the logger described by LogLevel and LogFormat
func (o *Options) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := o.level()
	if err != nil {
		return nil, err
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if o.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

func (o *Options) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", o.LogLevel, err)
	}
	return level, nil
}
