package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polyscore/internal/domain"
)

// Config es la configuración completa de polyscore.
type Config struct {
	Scoring  domain.ScoringConfig `yaml:"scoring"`
	Fetch    FetchConfig          `yaml:"fetch"`
	Wallets  []string             `yaml:"wallets"`
	Midpoint float64              `yaml:"midpoint"` // umbral de MidpointPolicy para el rating por mercado
	API      APIConfig            `yaml:"api"`
	Storage  StorageConfig        `yaml:"storage"`
	HTTP     HTTPConfig           `yaml:"http"`
	Log      LogConfig            `yaml:"log"`
}

// FetchConfig controla la descarga de datos por trader.
type FetchConfig struct {
	Workers         int `yaml:"workers"`   // wallets en vuelo
	PageSize        int `yaml:"page_size"` // items por página en la Data API
	MaxPages        int `yaml:"max_pages"`
	IntervalSeconds int `yaml:"interval_seconds"`
	TimeoutSeconds  int `yaml:"timeout_seconds"` // por request HTTP
}

// APIConfig contiene los base URLs de las APIs.
type APIConfig struct {
	DataBase  string `yaml:"data_base"`
	GammaBase string `yaml:"gamma_base"`
}

// StorageConfig controla dónde se persisten los snapshots.
type StorageConfig struct {
	DSN           string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
	RetentionDays int    `yaml:"retention_days"`
}

// HTTPConfig controla la vista HTTP de solo lectura.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
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

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return cfg, nil
}

// Parse decodifica el YAML y aplica overrides de entorno y defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	// Los pesos se validan tal como vienen: setDefaults sustituiría un vector
	// con suma <= 0 por los pesos v1.
	if err := cfg.Scoring.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("scoring weights: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg, nil
}

// Interval devuelve el intervalo entre ciclos como time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Fetch.IntervalSeconds) * time.Second
}

// Timeout devuelve el timeout por request HTTP.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// Retention devuelve la antigüedad máxima de los snapshots.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Storage.RetentionDays) * 24 * time.Hour
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("POLYSCORE_WALLETS"); v != "" {
		cfg.Wallets = SplitList(v)
	}
	if v := os.Getenv("POLYSCORE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("POLYSCORE_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
}

// SplitList parte una lista separada por comas, ignorando entradas vacías.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	cfg.Scoring = cfg.Scoring.WithDefaults()

	if cfg.Fetch.Workers <= 0 {
		cfg.Fetch.Workers = 4
	}
	if cfg.Fetch.PageSize <= 0 {
		cfg.Fetch.PageSize = 500
	}
	if cfg.Fetch.MaxPages <= 0 {
		cfg.Fetch.MaxPages = 10
	}
	if cfg.Fetch.IntervalSeconds <= 0 {
		cfg.Fetch.IntervalSeconds = 900
	}
	if cfg.Fetch.TimeoutSeconds <= 0 {
		cfg.Fetch.TimeoutSeconds = 15
	}
	if cfg.Midpoint <= 0 || cfg.Midpoint >= 1 {
		cfg.Midpoint = 0.5
	}
	if cfg.API.DataBase == "" {
		cfg.API.DataBase = "https://data-api.polymarket.com"
	}
	if cfg.API.GammaBase == "" {
		cfg.API.GammaBase = "https://gamma-api.polymarket.com"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "polyscore.db"
	}
	if cfg.Storage.RetentionDays <= 0 {
		cfg.Storage.RetentionDays = 30
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
