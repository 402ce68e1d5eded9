package config

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
)

type Config struct {
	Env          string        `env:"ENV,           default=development"`
	LogLevel     string        `env:"LOG_LEVEL,     default=info"`
	Port         string        `env:"PORT,          default=8080"`
	JWTSecret    string        `env:"JWT_SECRET"`
	TokenTTL     time.Duration `env:"TOKEN_TTL,     default=8h"`
	PasswordHash string        `env:"PASSWORD_HASH, default=sha256"`

	Mongo MongoConfig
}

// MongoConfig holds the connection inputs. The URI is assembled by ResolveURI.
type MongoConfig struct {
	URI      string        `env:"MONGODB_URI"`
	User     string        `env:"MONGO_USER"`
	Password string        `env:"MONGO_PASS"`
	Host     string        `env:"MONGO_HOST,    default=chatbotdb.kq9ai.mongodb.net"`
	App      string        `env:"MONGO_APP,     default=chatbotdb"`
	Database string        `env:"MONGO_DB,      default=school_app"`
	Timeout  time.Duration `env:"MONGO_TIMEOUT, default=10s"`
}

// Load reads a .env file when present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	_ = godotenv.Load()
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// Development reports whether the tool runs in a development environment.
func (c *Config) Development() bool {
	return c.Env == "development" || c.Env == "dev"
}

// ResolveURI picks the connection string: a full MONGODB_URI first, then the
// explicitly supplied user and password, then MONGO_USER/MONGO_PASS. It
// returns a *domain.ConfigurationError when none of them is usable.
func (m MongoConfig) ResolveURI(user, password string) (string, error) {
	if m.URI != "" {
		return m.URI, nil
	}
	if user != "" && password != "" {
		return srvURI(user, password, m.Host, m.App), nil
	}
	if m.User != "" && m.Password != "" {
		return srvURI(m.User, m.Password, m.Host, m.App), nil
	}
	return "", &domain.ConfigurationError{
		Reason: "no MongoDB credentials: set MONGODB_URI, pass a user and password, or set MONGO_USER and MONGO_PASS",
	}
}

func srvURI(user, password, host, app string) string {
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(user, password),
		Host:     host,
		Path:     "/",
		RawQuery: url.Values{"appName": {app}}.Encode(),
	}
	return u.String()
}
