/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package config builds the cobra command that parses flags and
// SOUNDOFF_-prefixed environment variables into a Config, generalizing the
// teacher's single-game Config/newCmd to the room server's larger surface
// of catalog, video, token-issuer, and durability settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every environment-supplied input the server consumes, per
// spec.md §6.3.
type Config struct {
	Bind           string
	Port           int
	Prefix         string
	AllowedOrigins []string
	PlayerTimeout  time.Duration
	SessionTimeout time.Duration
	TLSCert        string
	TLSKey         string
	Verbose        bool
	Profile        bool
	Version        bool

	DBPath string

	CatalogBaseURL string
	CatalogAPIKey  string
	VideoAPIKey    string
	SearchTimeout  time.Duration

	BreakerCooldown  time.Duration
	BreakerThreshold uint32

	TokenIssuerURL     string
	TokenVerifyTimeout time.Duration
}

func (c *Config) Validate() error {
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	return nil
}

func (c *Config) Scheme() string {
	if c.TLSCert != "" && c.TLSKey != "" {
		return "https"
	}
	return "http"
}

const releaseVersion = "0.1.0"

// NewCommand builds the root cobra command. run is invoked with the parsed
// Config once flags/env/validation succeed.
func NewCommand(cfg *Config, run func(cfg *Config, args []string) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SOUNDOFF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var allowedOrigins string

	cmd := &cobra.Command{
		Use:           "soundoff",
		Short:         "A real-time multiplayer name-that-tune game server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if allowedOrigins != "" {
				cfg.AllowedOrigins = strings.Split(allowedOrigins, ",")
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: SOUNDOFF_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: SOUNDOFF_PORT)")
	fs.StringVar(&cfg.Prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SOUNDOFF_PREFIX)")
	fs.StringVar(&allowedOrigins, "allowed-origins", "", "comma-separated list of allowed websocket origins, empty allows any (env: SOUNDOFF_ALLOWED_ORIGINS)")
	fs.DurationVar(&cfg.PlayerTimeout, "player-timeout", 10*time.Minute, "idle connection window; parsed but not used by the server, which does no idle-connection reaping (env: SOUNDOFF_PLAYER_TIMEOUT)")
	fs.DurationVar(&cfg.SessionTimeout, "session-timeout", 60*time.Minute, "idle room window; parsed but not used by the server, which evicts a room only once it has no members (env: SOUNDOFF_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.TLSCert, "tls-cert", "", "path to tls certificate (env: SOUNDOFF_TLS_CERT)")
	fs.StringVar(&cfg.TLSKey, "tls-key", "", "path to tls keyfile (env: SOUNDOFF_TLS_KEY)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "display additional output (env: SOUNDOFF_VERBOSE)")
	fs.BoolVar(&cfg.Profile, "profile", false, "register net/http/pprof handlers (env: SOUNDOFF_PROFILE)")
	fs.BoolVarP(&cfg.Version, "version", "V", false, "display version and exit (env: SOUNDOFF_VERSION)")

	fs.StringVar(&cfg.DBPath, "db-path", "soundoff.db", "path to the sqlite database file (env: SOUNDOFF_DB_PATH)")

	fs.StringVar(&cfg.CatalogBaseURL, "catalog-base-url", "", "base url of the catalog-preview API (env: SOUNDOFF_CATALOG_BASE_URL)")
	fs.StringVar(&cfg.CatalogAPIKey, "catalog-api-key", "", "api key for the catalog-preview API (env: SOUNDOFF_CATALOG_API_KEY)")
	fs.StringVar(&cfg.VideoAPIKey, "video-api-key", "", "api key for the video-site official search API (env: SOUNDOFF_VIDEO_API_KEY)")
	fs.DurationVar(&cfg.SearchTimeout, "search-timeout", 5*time.Second, "timeout for outbound catalog/search calls (env: SOUNDOFF_SEARCH_TIMEOUT)")

	fs.DurationVar(&cfg.BreakerCooldown, "breaker-cooldown", 3*time.Hour, "cooldown before the search circuit breaker resets after tripping (env: SOUNDOFF_BREAKER_COOLDOWN)")
	fs.Uint32Var(&cfg.BreakerThreshold, "breaker-threshold", 3, "consecutive quota failures before the search circuit breaker trips (env: SOUNDOFF_BREAKER_THRESHOLD)")

	fs.StringVar(&cfg.TokenIssuerURL, "token-issuer", "", "base url of the bearer-token issuer, whose /userinfo endpoint is called; empty uses deterministic anonymous identities (env: SOUNDOFF_TOKEN_ISSUER)")
	fs.DurationVar(&cfg.TokenVerifyTimeout, "token-verify-timeout", 5*time.Second, "timeout for token verification calls (env: SOUNDOFF_TOKEN_VERIFY_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("soundoff v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
