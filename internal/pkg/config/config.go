package config

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
)

// Console session slots.
const (
	SlotFile  = "file"
	SlotRedis = "redis"
)

type Config struct {
	Port      string        `env:"PORT,       default=8080"`
	Env       string        `env:"ENV,        default=development"`
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,  default=12h"`
	LogLevel  string        `env:"LOG_LEVEL,  default=info"`
	LogPretty bool          `env:"LOG_PRETTY, default=false"`

	StoreBackend string `env:"STORE_BACKEND, default=memory"`

	Mongo   MongoConfig
	SQLite  SQLiteConfig
	Redis   RedisConfig
	Session SessionConfig
	Latency LatencyConfig
	Auth    AuthConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,       default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,        default=records_dashboard"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL,  default=0"`
}

type SQLiteConfig struct {
	Path string `env:"SQLITE_PATH, default=records.db"`
}

type RedisConfig struct {
	Enabled  bool   `env:"REDIS_ENABLED, default=false"`
	Addr     string `env:"REDIS_ADDR,    default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,      default=0"`
}

// SessionConfig selects where the console keeps its session snapshot.
type SessionConfig struct {
	Slot string `env:"SESSION_SLOT, default=file"`
	File string `env:"SESSION_FILE, default=.dashboard-session.json"`
}

type LatencyConfig struct {
	Enabled bool    `env:"LATENCY_ENABLED, default=true"`
	Scale   float64 `env:"LATENCY_SCALE,   default=1"`
}

type AuthConfig struct {
	SeedPassword string  `env:"SEED_PASSWORD, default=password"`
	BcryptCost   int     `env:"BCRYPT_COST,   default=10"`
	LoginRate    float64 `env:"LOGIN_RATE,    default=1"`
	LoginBurst   int     `env:"LOGIN_BURST,   default=5"`
	// TrustedProxies lists the CIDRs allowed to set X-Forwarded-For. When
	// empty the client IP is the connection's remote address.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`
}

// TrustedNets parses TrustedProxies.
func (a AuthConfig) TrustedNets() ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(a.TrustedProxies))
	for _, cidr := range a.TrustedProxies {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
		}
		nets = append(nets, n)
	}
	return nets, nil
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadContext(context.Background())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadContext is Load with an explicit context and error return.
func LoadContext(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown backend names and settings that cannot work.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendMongo, BackendSQLite:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Session.Slot {
	case SlotFile:
	case SlotRedis:
		if !c.Redis.Enabled {
			return fmt.Errorf("SESSION_SLOT=redis requires REDIS_ENABLED")
		}
	default:
		return fmt.Errorf("unknown SESSION_SLOT %q", c.Session.Slot)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Latency.Scale < 0 {
		return fmt.Errorf("LATENCY_SCALE must not be negative")
	}
	if _, err := c.Auth.TrustedNets(); err != nil {
		return err
	}
	return nil
}

// IsProduction reports whether the service runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
