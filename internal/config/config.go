package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string `yaml:"socket-port" env:"SOCKET_PORT" env-default:"7777"`
	Game       Game   `yaml:"game"`
	Redis      Redis  `yaml:"redis"`
}

type Game struct {
	AIDelay time.Duration `yaml:"ai-delay" env:"GAME_AI_DELAY" env-default:"1s"`
	// AISeed - 0 seeds the bot randomly.
	AISeed  int64  `yaml:"ai-seed" env:"GAME_AI_SEED" env-default:"0"`
	PlayerX string `yaml:"player-x" env:"GAME_PLAYER_X" env-default:"Player 1"`
	PlayerO string `yaml:"player-o" env:"GAME_PLAYER_O" env-default:"Player 2"`
}

type Redis struct {
	Enabled    bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host       string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port       string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	SessionTTL time.Duration `yaml:"session-ttl" env:"REDIS_SESSION_TTL" env-default:"24h"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load - reads the file at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

// LoadEnv - builds the config from defaults and environment only.
func LoadEnv() (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read config from env: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
