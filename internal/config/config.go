// Package config loads the settings shared by the player and the proxy from
// an optional YAML file, an optional .env file and QURAN_* environment
// variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"quran-player/internal/audio"
	"quran-player/internal/logging"
	"quran-player/internal/match"
	"quran-player/internal/speech"
)

// EnvPath names the variable holding an explicit config file path.
const EnvPath = "QURAN_CONFIG"

type Config struct {
	Env     string         `yaml:"env" env:"QURAN_ENV" env-default:"local"`
	Log     logging.Config `yaml:"log" env-prefix:"QURAN_LOG_"`
	API     APIConfig      `yaml:"api" env-prefix:"QURAN_API_"`
	Speech  speech.Config  `yaml:"speech" env-prefix:"QURAN_SPEECH_"`
	Player  audio.Config   `yaml:"player" env-prefix:"QURAN_PLAYER_"`
	Matcher MatcherConfig  `yaml:"matcher" env-prefix:"QURAN_MATCHER_"`
	HTTP    HTTPConfig     `yaml:"http" env-prefix:"QURAN_HTTP_"`
	UI      UIConfig       `yaml:"ui" env-prefix:"QURAN_UI_"`
}

// APIConfig points at the upstream data sources.
type APIConfig struct {
	ChaptersURL  string        `yaml:"chapters_url" env:"CHAPTERS_URL" env-default:"https://mp3quran.net/api/v3/suwar"`
	VersesURL    string        `yaml:"verses_url" env:"VERSES_URL" env-default:"https://api.quran.com/api/v4/quran/verses/indopak"`
	TafseerURL   string        `yaml:"tafseer_url" env:"TAFSEER_URL" env-default:"http://api.quran-tafseer.com/tafseer"`
	AudioBaseURL string        `yaml:"audio_base_url" env:"AUDIO_BASE_URL" env-default:"https://verses.quran.com/AbdulBaset/Mujawwad/mp3"`
	TafseerID    int           `yaml:"tafseer_id" env:"TAFSEER_ID" env-default:"1"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT" env-default:"10s"`
}

type MatcherConfig struct {
	Algorithm string  `yaml:"algorithm" env:"ALGORITHM" env-default:"substring"`
	Threshold float64 `yaml:"threshold" env:"THRESHOLD" env-default:"0.3"`
}

// HTTPConfig controls the proxy server.
type HTTPConfig struct {
	Address         string        `yaml:"address" env:"ADDRESS" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" env-default:"30s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

type UIConfig struct {
	Theme string `yaml:"theme" env:"THEME" env-default:"catppuccin-mocha"`
}

// DefaultPath returns <UserConfigDir>/quran-player/config.yaml.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "quran-player", "config.yaml"), nil
}

// Load resolves the config file (path, then $QURAN_CONFIG, then
// [DefaultPath] if it exists), applies environment overrides and validates.
// A missing default file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		if def, err := DefaultPath(); err == nil {
			if _, err := os.Stat(def); err == nil {
				path = def
			}
		}
	}

	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("config: read environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate returns a joined error listing every invalid value.
func Validate(cfg *Config) error {
	var errs []error

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}
	if f := cfg.Log.Format; f != "" && f != "json" && f != "console" {
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: json, console", f))
	}

	if cfg.API.TafseerID < 1 {
		errs = append(errs, fmt.Errorf("api.tafseer_id %d must be positive", cfg.API.TafseerID))
	}
	if cfg.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout %s must be positive", cfg.API.Timeout))
	}

	if !match.Algorithm(cfg.Matcher.Algorithm).IsValid() {
		errs = append(errs, fmt.Errorf("matcher.algorithm %q is invalid; valid values: substring, levenshtein, jaro-winkler", cfg.Matcher.Algorithm))
	}
	if cfg.Matcher.Threshold < 0 || cfg.Matcher.Threshold > 1 {
		errs = append(errs, fmt.Errorf("matcher.threshold %.2f is out of range [0, 1]", cfg.Matcher.Threshold))
	}

	if err := cfg.Speech.Validate(); err != nil {
		errs = append(errs, err)
	}

	if cfg.HTTP.Address == "" {
		errs = append(errs, errors.New("http.address is required"))
	}

	return errors.Join(errs...)
}

// Dump writes cfg as YAML.
func Dump(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: encode yaml: %w", err)
	}
	return enc.Close()
}
