package config

import (
	"fmt"
	"time"

	"ctchen222/tictactoe-relay/internal/validator"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel    string      `yaml:"log-level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=debug info warn error"`
	ListenAddr  string      `yaml:"listen-addr" env:"LISTEN_ADDR" env-default:":5000" validate:"required"`
	AdminAddr   string      `yaml:"admin-addr" env:"ADMIN_ADDR" env-default:":8080"`
	Session     Session     `yaml:"session"`
	Matchmaking Matchmaking `yaml:"matchmaking"`
	Redis       Redis       `yaml:"redis"`
	Roster      Roster      `yaml:"roster"`
	Telemetry   Telemetry   `yaml:"telemetry"`
	Admin       Admin       `yaml:"admin"`
}

type Session struct {
	DrawPolicy   string        `yaml:"draw-policy" env:"SESSION_DRAW_POLICY" env-default:"reset" validate:"oneof=reset terminate"`
	WriteTimeout time.Duration `yaml:"write-timeout" env:"SESSION_WRITE_TIMEOUT" env-default:"10s" validate:"gte=0s"`
}

type Matchmaking struct {
	// MaxWait of 0 lets a peer wait forever.
	MaxWait       time.Duration `yaml:"max-wait" env:"MATCHMAKING_MAX_WAIT" env-default:"5m" validate:"gte=0s"`
	OnTimeout     string        `yaml:"on-timeout" env:"MATCHMAKING_ON_TIMEOUT" env-default:"close" validate:"oneof=close bot"`
	BotDifficulty string        `yaml:"bot-difficulty" env:"MATCHMAKING_BOT_DIFFICULTY" env-default:"hard" validate:"oneof=easy medium hard"`
	BotThinkTime  time.Duration `yaml:"bot-think-time" env:"MATCHMAKING_BOT_THINK_TIME" env-default:"500ms" validate:"gte=0s"`
}

type Redis struct {
	Addr    string `yaml:"addr" env:"REDIS_CONNSTRING"`
	Channel string `yaml:"channel" env:"REDIS_CHANNEL" env-default:"channel:events" validate:"required"`
}

type Roster struct {
	SQLitePath string `yaml:"sqlite-path" env:"ROSTER_SQLITE_PATH"`
}

type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp-endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"tictactoe-relay" validate:"required"`
}

type Admin struct {
	JWTSecret string        `yaml:"jwt-secret" env:"ADMIN_JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token-ttl" env:"ADMIN_TOKEN_TTL" env-default:"24h" validate:"gt=0s"`
}

// Load reads the YAML file at path with environment overrides, or only the
// environment when path is empty, then validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err := validator.Struct(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad - load configuration or panic.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}
