package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	ProdMode = "production"
	DevMode  = "development"
)

type Config struct {
	// Port is the Port number to listen on. The default is 8080.
	Port int `validate:"required,port"`
	// Host is the address to listen on. The default is 0.0.0.0.
	Host string `validate:"required"`
	// Environment is either production or development. Session cookies are only marked Secure in production.
	Environment string     `validate:"required,oneof=production development"`
	LogLevel    slog.Level `mapstructure:"log_level"`
	// AllowedOrigin is the single origin allowed to make credentialed CORS requests.
	AllowedOrigin string `mapstructure:"allowed_origin" validate:"required"`
	Auth          struct {
		// Secret is the key used to sign session tokens. There is no default.
		Secret string `validate:"required"`
	}
	Database struct {
		// DSN is the path of the SQLite database file.
		DSN             string        `validate:"required"`
		MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
		// Migrations overrides the embedded migrations with a directory on disk.
		Migrations string
	}
	TLS struct {
		Crt string
		Key string
	}
	valid bool
}

func (c *Config) Production() bool {
	return c.Environment == ProdMode
}

// LoadConfig loads the configuration from an optional .env file, an optional
// config.yaml in the given paths (default ".") and environment variables.
// Any invalid configuration will not be loaded, and the error will be caught in the validation step.
func LoadConfig(paths ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// every key needs a default so that AutomaticEnv can see it on Unmarshal
	v.SetDefault("port", 8080)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("environment", DevMode)
	v.SetDefault("log_level", "info")
	v.SetDefault("allowed_origin", "http://localhost:5173")
	v.SetDefault("auth.secret", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 0)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations", "")
	v.SetDefault("tls.crt", "")
	v.SetDefault("tls.key", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config,
		viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.TextUnmarshallerHookFunc()),
		),
	); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.valid {
		return nil
	}
	err := validate.Struct(c)
	if err != nil {
		return err
	}
	c.valid = true
	return nil
}

func FormatValidationErrors(err error) string {
	errors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	trans, _ := uniTrans.GetTranslator("en")
	translated := errors.Translate(trans)

	var sb strings.Builder
	for v := range maps.Values(translated) {
		sb.WriteString(v)
		sb.WriteString("\n")
	}
	return sb.String()
}
