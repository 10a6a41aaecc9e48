// Package config loads the process-wide settings once at startup.
//
// Values come from the environment (optionally seeded from a .env file) and
// are resolved through viper. The returned Config is a plain value; callers
// pass the pieces they need into constructors instead of reading globals.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"qr-serverless/internal/render"
)

const minSecretBytes = 32

type Config struct {
	Env            string
	Port           string
	DatabaseURL    string
	JWTSecret      string
	SentryDSN      string
	AccessTokenTTL time.Duration
	RunMigrations  bool
	MetricsEnabled bool
	CORSOrigins    []string
	DB             DBConfig
	Render         RenderConfig
}

type DBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// RenderConfig describes the raster geometry shared by every rendered code.
type RenderConfig struct {
	BoxSize       int
	Border        int
	RoundedRadius float64
	GapRatio      float64
}

type Options struct {
	LoadDotEnv bool
}

func Load(options Options) (Config, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 30)
	v.SetDefault("RUN_MIGRATIONS_ON_STARTUP", false)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	v.SetDefault("DB_CONN_MAX_IDLE_TIME_MINUTES", 10)
	v.SetDefault("QR_BOX_SIZE", 10)
	v.SetDefault("QR_BORDER", 4)
	v.SetDefault("QR_ROUNDED_RADIUS", 0.25)
	v.SetDefault("QR_GAP_RATIO", 0.8)

	databaseURL, err := required(v, "DATABASE_URL")
	if err != nil {
		return Config{}, err
	}
	jwtSecret, err := required(v, "JWT_SECRET")
	if err != nil {
		return Config{}, err
	}
	if len(jwtSecret) < minSecretBytes {
		return Config{}, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretBytes)
	}

	cfg := Config{
		Env:            strings.TrimSpace(v.GetString("APP_ENV")),
		Port:           strings.TrimSpace(v.GetString("PORT")),
		DatabaseURL:    databaseURL,
		JWTSecret:      jwtSecret,
		SentryDSN:      strings.TrimSpace(v.GetString("SENTRY_DSN")),
		AccessTokenTTL: positiveMinutes(v, "ACCESS_TOKEN_TTL_MINUTES", 30),
		RunMigrations:  v.GetBool("RUN_MIGRATIONS_ON_STARTUP"),
		MetricsEnabled: v.GetBool("METRICS_ENABLED"),
		CORSOrigins:    splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		DB: DBConfig{
			MaxOpenConns:    positiveInt(v, "DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    positiveInt(v, "DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: positiveMinutes(v, "DB_CONN_MAX_LIFETIME_MINUTES", 30),
			ConnMaxIdleTime: positiveMinutes(v, "DB_CONN_MAX_IDLE_TIME_MINUTES", 10),
		},
		Render: RenderConfig{
			BoxSize:       positiveInt(v, "QR_BOX_SIZE", 10),
			Border:        v.GetInt("QR_BORDER"),
			RoundedRadius: v.GetFloat64("QR_ROUNDED_RADIUS"),
			GapRatio:      v.GetFloat64("QR_GAP_RATIO"),
		},
	}

	if cfg.Render.Border < 0 {
		return Config{}, fmt.Errorf("QR_BORDER must not be negative")
	}
	if maxBox := render.MaxBoxSize(cfg.Render.Border); cfg.Render.BoxSize > maxBox {
		return Config{}, fmt.Errorf("QR_BOX_SIZE must be at most %d with QR_BORDER %d", maxBox, cfg.Render.Border)
	}
	if cfg.Render.RoundedRadius < 0 || cfg.Render.RoundedRadius > 0.5 {
		return Config{}, fmt.Errorf("QR_ROUNDED_RADIUS must be within [0, 0.5]")
	}
	if cfg.Render.GapRatio <= 0 || cfg.Render.GapRatio > 1 {
		return Config{}, fmt.Errorf("QR_GAP_RATIO must be within (0, 1]")
	}

	return cfg, nil
}

func (c Config) IsDevelopment() bool {
	return c.Env == "" || c.Env == "development"
}

func required(v *viper.Viper, name string) (string, error) {
	value := strings.TrimSpace(v.GetString(name))
	if value == "" {
		return "", fmt.Errorf("missing required env: %s", name)
	}
	return value, nil
}

func positiveInt(v *viper.Viper, name string, fallback int) int {
	value := v.GetInt(name)
	if value <= 0 {
		return fallback
	}
	return value
}

func positiveMinutes(v *viper.Viper, name string, fallback int) time.Duration {
	return time.Duration(positiveInt(v, name, fallback)) * time.Minute
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
