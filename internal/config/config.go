package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	defaultDSN     = "host=localhost user=postgres password=postgres dbname=sitedesk port=5432 sslmode=disable"
	defaultOrigins = "http://localhost:5173"
	defaultAdminPW = "admin123"
)

type Config struct {
	App struct {
		Env string `mapstructure:"env"`
	} `mapstructure:"app"`

	HTTP struct {
		Port            string        `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"http"`

	Database struct {
		Driver string `mapstructure:"driver"` // postgres | memory
		DSN    string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	JWT struct {
		Secret string        `mapstructure:"secret"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"jwt"`

	CORS struct {
		AllowedOrigins string `mapstructure:"allowed_origins"`
	} `mapstructure:"cors"`

	// The dashboard has a single administrator, seeded on startup.
	Admin struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"admin"`

	Blob struct {
		Driver    string `mapstructure:"driver"` // local | s3
		LocalPath string `mapstructure:"local_path"`
		S3        struct {
			Bucket    string `mapstructure:"bucket"`
			Region    string `mapstructure:"region"`
			Endpoint  string `mapstructure:"endpoint"`
			PathStyle bool   `mapstructure:"path_style"`
			// empty keys fall back to the default AWS credential chain
			AccessKeyID     string `mapstructure:"access_key_id"`
			SecretAccessKey string `mapstructure:"secret_access_key"`
		} `mapstructure:"s3"`
	} `mapstructure:"blob"`

	Upload struct {
		MaxBytes int `mapstructure:"max_bytes"`
	} `mapstructure:"upload"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("http.port", "8080")
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", defaultDSN)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("cors.allowed_origins", defaultOrigins)
	v.SetDefault("admin.username", "admin")
	v.SetDefault("admin.password", defaultAdminPW)
	v.SetDefault("admin.name", "Site Administrator")
	v.SetDefault("blob.driver", "local")
	v.SetDefault("blob.local_path", "./site-photos")
	v.SetDefault("blob.s3.bucket", "")
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.path_style", false)
	v.SetDefault("blob.s3.access_key_id", "")
	v.SetDefault("blob.s3.secret_access_key", "")
	v.SetDefault("upload.max_bytes", 10<<20)
	v.SetDefault("metrics.enabled", true)
}

// Load reads defaults, an optional .env file, an optional config file
// (CONFIG_FILE) and the environment, in increasing priority. Environment keys
// are the upper-cased config keys with "." replaced by "_" (HTTP_PORT,
// DATABASE_DSN, JWT_SECRET, BLOB_S3_BUCKET...). Non-fatal problems come back
// as warnings.
func Load() (*Config, []string, error) {
	// a missing .env is fine
	_ = gotenv.Load()

	v := viper.New()
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("decode config: %w", err)
	}

	warnings, err := cfg.validate()
	if err != nil {
		return nil, warnings, err
	}
	return &cfg, warnings, nil
}

func (c *Config) validate() ([]string, error) {
	var warnings []string

	if c.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if len(c.JWT.Secret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}
	switch c.Database.Driver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver)
	}
	switch c.Blob.Driver {
	case "local":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			return nil, errors.New("BLOB_S3_BUCKET is required for the s3 blob driver")
		}
	default:
		return nil, fmt.Errorf("unknown BLOB_DRIVER %q", c.Blob.Driver)
	}

	if c.Database.Driver == "postgres" && c.Database.DSN == defaultDSN {
		warnings = append(warnings, "DATABASE_DSN uses the default value, set your own for production")
	}
	if c.Database.Driver == "memory" {
		warnings = append(warnings, "DATABASE_DRIVER=memory, data is lost on restart")
	}
	if c.CORS.AllowedOrigins == defaultOrigins {
		warnings = append(warnings, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	if c.Admin.Password == defaultAdminPW {
		warnings = append(warnings, "ADMIN_PASSWORD uses the default value, change it")
	}
	return warnings, nil
}

// Origins splits the comma separated CORS list.
func (c *Config) Origins() []string {
	parts := strings.Split(c.CORS.AllowedOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
