package config

import (
	"fmt"

	"github.com/dev7ba/mempool-server/pkgs/logger"
)

// BitcoindClientConfig describes how to reach and authenticate against the
// upstream node, under the `[bitcoindclient]` section of config.toml.
type BitcoindClientConfig struct {
	// CookieAuthPath, if set, takes precedence over User/Passwd.
	CookieAuthPath string `mapstructure:"cookieauthpath"`
	IPAddr         string `mapstructure:"ipaddr"`
	User           string `mapstructure:"user"`
	Passwd         string `mapstructure:"passwd"`

	// ZMQPort and ZMQURL are mutually exclusive ways of naming the sequence
	// notification endpoint; ZMQURL wins when both are set.
	ZMQPort uint16 `mapstructure:"zmqport"`
	ZMQURL  string `mapstructure:"zmqurl"`

	// WaitTimeoutSec bounds inter-event silence before the updater forces
	// a shutdown. Zero means "use the default" (60s).
	WaitTimeoutSec uint64 `mapstructure:"waittimeoutsec"`
}

// Endpoint resolves the ZMQ endpoint to subscribe to, preferring an
// explicit URL over a bare port on localhost.
func (c BitcoindClientConfig) Endpoint() string {
	if c.ZMQURL != "" {
		return c.ZMQURL
	}
	return fmt.Sprintf("tcp://127.0.0.1:%d", c.ZMQPort)
}

// UseCookie reports whether cookie-file authentication should be used in
// preference to a static username/password.
func (c BitcoindClientConfig) UseCookie() bool {
	return c.CookieAuthPath != ""
}

// WaitTimeoutSeconds returns the configured inter-event timeout, defaulting to 60s.
func (c BitcoindClientConfig) WaitTimeoutSeconds() uint64 {
	if c.WaitTimeoutSec == 0 {
		return 60
	}
	return c.WaitTimeoutSec
}

// HTTPConfig describes the streaming HTTP surface.
type HTTPConfig struct {
	// ListenAddr is the bind address for the streamer, e.g. ":8080".
	ListenAddr string `mapstructure:"listenaddr"`
	// MountPrefix prefixes every endpoint path; defaults to "/mempool".
	MountPrefix string `mapstructure:"mountprefix"`
}

func (h HTTPConfig) mountPrefixOrDefault() string {
	if h.MountPrefix == "" {
		return "/mempool"
	}
	return h.MountPrefix
}

// Globals holds process-wide singletons that every component needs a
// handle to but that do not belong to any one component's config section.
type Globals struct {
	Log logger.Logger
}

// AppConfig is the root configuration object, populated from config.toml
// overlaid with MPS_-prefixed environment variables.
type AppConfig struct {
	BitcoindClient BitcoindClientConfig `mapstructure:"bitcoindclient"`
	HTTP           HTTPConfig           `mapstructure:"http"`

	g *Globals
}

// G returns the config's global object, initializing it on first use.
func (c *AppConfig) G() *Globals {
	if c.g == nil {
		c.g = &Globals{}
	}
	return c.g
}

// MountPrefix returns the configured HTTP mount prefix, defaulting to "/mempool".
func (c *AppConfig) MountPrefix() string {
	return c.HTTP.mountPrefixOrDefault()
}

// Redacted returns a copy of the config safe to log: secrets are replaced
// with a fixed placeholder so they never reach disk or stdout via debug
// dumps.
func (c AppConfig) Redacted() AppConfig {
	redacted := c
	if redacted.BitcoindClient.User != "" {
		redacted.BitcoindClient.User = "****"
	}
	if redacted.BitcoindClient.Passwd != "" {
		redacted.BitcoindClient.Passwd = "****"
	}
	return redacted
}
