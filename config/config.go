package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/dev7ba/mempool-server/errs"
	"github.com/dev7ba/mempool-server/pkgs/logger"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix applied to every environment variable override,
// e.g. MPS_BITCOINDCLIENT_IPADDR overrides bitcoindclient.ipaddr.
const EnvPrefix = "MPS"

// setDefaults seeds the values config.toml or the environment may omit.
// Every key gets a default, even an empty one, because viper only
// unmarshals keys it already knows about; without one, a key supplied
// solely through the environment would be ignored.
func setDefaults(v *viper.Viper) {
	v.SetDefault("bitcoindclient.cookieauthpath", "")
	v.SetDefault("bitcoindclient.ipaddr", "")
	v.SetDefault("bitcoindclient.user", "")
	v.SetDefault("bitcoindclient.passwd", "")
	v.SetDefault("bitcoindclient.zmqport", 0)
	v.SetDefault("bitcoindclient.zmqurl", "")
	v.SetDefault("bitcoindclient.waittimeoutsec", 60)
	v.SetDefault("http.listenaddr", ":8080")
	v.SetDefault("http.mountprefix", "/mempool")
}

// Load reads config.toml from the executable's directory, overlays
// MPS_-prefixed environment variables (with "_" as both prefix and
// section separator, set through the key replacer below), and
// returns the populated AppConfig.
func Load(log logger.Logger) (*AppConfig, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, errs.New(errs.KindConfig, "failed to resolve executable directory", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(exeDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errs.New(errs.KindConfig, "failed to read config.toml", err)
		}
		// No config.toml is fine as long as the environment supplies everything.
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errs.New(errs.KindConfig, "failed to decode configuration", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, errs.New(errs.KindConfig, "invalid configuration", err)
	}

	cfg.G().Log = log
	log.Info("loaded configuration", "config", fmt.Sprintf("%+v", cfg.Redacted()))

	return cfg, nil
}

func (c *AppConfig) validate() error {
	if c.BitcoindClient.IPAddr == "" {
		return errors.New("bitcoindclient.ipaddr is required")
	}
	if c.BitcoindClient.ZMQPort == 0 && c.BitcoindClient.ZMQURL == "" {
		return errors.New("one of bitcoindclient.zmqport or bitcoindclient.zmqurl is required")
	}
	if !c.BitcoindClient.UseCookie() && c.BitcoindClient.User == "" {
		return errors.New("either bitcoindclient.cookieauthpath or bitcoindclient.user/passwd must be set")
	}
	return nil
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return dirOf(exe), nil
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, os.PathSeparator)
	if idx < 0 {
		return "."
	}
	return path[:idx]
}
