package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del servicio.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Feed    FeedConfig    `yaml:"feed"`
	Runner  RunnerConfig  `yaml:"runner"`
	Engine  EngineConfig  `yaml:"engine"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// BackendConfig apunta al backend de la plataforma.
type BackendConfig struct {
	BaseURL  string `yaml:"base_url"`
	GameType string `yaml:"game_type"`
}

// FeedConfig apunta al feed de precios.
type FeedConfig struct {
	URL string `yaml:"url"`
}

// RunnerConfig controla el seguimiento de rondas.
type RunnerConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
}

// EngineConfig controla los timers del engine por ronda.
type EngineConfig struct {
	SnapshotIntervalMS int `yaml:"snapshot_interval_ms"`
	EndCheckIntervalMS int `yaml:"end_check_interval_ms"`
	ReconnectDelayMS   int `yaml:"reconnect_delay_ms"`
}

// StorageConfig controla dónde se persiste el histórico de rondas.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// PollInterval devuelve el intervalo de consulta de rondas como time.Duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Runner.PollIntervalSeconds) * time.Second
}

// SnapshotInterval devuelve la cadencia de snapshots del engine.
func (c *Config) SnapshotInterval() time.Duration {
	return time.Duration(c.Engine.SnapshotIntervalMS) * time.Millisecond
}

// EndCheckInterval devuelve la cadencia del check de fin de ronda.
func (c *Config) EndCheckInterval() time.Duration {
	return time.Duration(c.Engine.EndCheckIntervalMS) * time.Millisecond
}

// ReconnectDelay devuelve el delay fijo de reconexión del feed.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Engine.ReconnectDelayMS) * time.Millisecond
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("FEED_URL"); v != "" {
		cfg.Feed.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Backend.GameType == "" {
		cfg.Backend.GameType = "derby"
	}
	if cfg.Runner.PollIntervalSeconds <= 0 {
		cfg.Runner.PollIntervalSeconds = 5
	}
	if cfg.Engine.SnapshotIntervalMS <= 0 {
		cfg.Engine.SnapshotIntervalMS = 2000
	}
	if cfg.Engine.EndCheckIntervalMS <= 0 {
		cfg.Engine.EndCheckIntervalMS = 1000
	}
	if cfg.Engine.ReconnectDelayMS <= 0 {
		cfg.Engine.ReconnectDelayMS = 3000
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "leadboard.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
