package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	HTTP struct {
		Addr              string
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN      string
		MaxConns int32 `mapstructure:"max_conns"`
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Realtime struct {
		PushTimeout time.Duration `mapstructure:"push_timeout"`
		Heartbeat   time.Duration
	} `mapstructure:"realtime"`

	NATS struct {
		URL           string
		SubjectPrefix string `mapstructure:"subject_prefix"`
	} `mapstructure:"nats"`

	// Telegram is optional; without a token data-quality warnings are only logged.
	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_header_timeout", 5*time.Second)
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("realtime.push_timeout", 5*time.Second)
	v.SetDefault("realtime.heartbeat", 25*time.Second)
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "rollflow")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
}

// Load reads the YAML file at path. A .env file in the working directory is
// applied to the environment first; APP_* variables override file values
// (APP_POSTGRES_DSN for postgres.dsn). An empty path reads env and defaults
// only.
func Load(path string) (Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	defaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.Postgres.DSN == "":
		return errors.New("config: postgres.dsn is required")
	case c.Realtime.PushTimeout <= 0:
		return errors.New("config: realtime.push_timeout must be > 0")
	case c.Realtime.Heartbeat <= 0:
		return errors.New("config: realtime.heartbeat must be > 0")
	case c.Telegram.Token != "" && c.Telegram.AdminChatID == 0:
		return errors.New("config: telegram.admin_chat_id is required with a token")
	}
	return nil
}
