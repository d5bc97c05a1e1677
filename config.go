package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
)

const (
	ENV_PORT       = "RINGTAIL_PORT"
	ENV_CAPACITY   = "RINGTAIL_CAPACITY"
	ENV_JWT_SECRET = "RINGTAIL_JWT_SECRET"
	ENV_API_KEY    = "RINGTAIL_API_KEY"
	ENV_BUCKET     = "RINGTAIL_BUCKET"
	ENV_HEALTH_URL = "RINGTAIL_HEALTH_ENDPOINT"
	ENV_ARCHIVE    = "RINGTAIL_ARCHIVE_REPO"
)

type Config struct {
	Port         int      `json:"port"`
	Capacity     int      `json:"capacity"`
	InitialLines int      `json:"initial_lines"`
	ChunkSize    int      `json:"chunk_size"`
	Files        []string `json:"files"`
	WatchDir     string   `json:"watch_dir,omitempty"`
	FromStart    bool     `json:"from_start"`
	Bucket       string   `json:"bucket,omitempty"`
	ArchiveRepo  string   `json:"archive_repo,omitempty"`
	APIKey       string   `json:"api_key,omitempty"`
	// Hex encoded HS256 signing key. Empty disables auth.
	JWTSecret string `json:"jwt_secret,omitempty"`
	// Stats are POSTed here periodically when set.
	HealthEndpoint      string `json:"health_endpoint,omitempty"`
	PingIntervalSeconds int    `json:"ping_interval_seconds"`
	Debug               bool   `json:"debug"`
}

func DefaultConfig() *Config {
	return &Config{
		Port:         1234,
		Capacity:     500,
		InitialLines: 10,
		ChunkSize:    100,

		PingIntervalSeconds: 60,
	}
}

func ReadConfig(in io.Reader) (*Config, error) {
	config := DefaultConfig()
	if err := json.NewDecoder(in).Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}

func ReadConfigFromFile(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadConfig(file)
}

func (config Config) SaveConfig(out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(&config)
}

// LoadConfig layers defaults, the optional --config file, the environment
// and finally the command line flags.
func LoadConfig(args Args, getenv func(string) string) (*Config, error) {
	config := DefaultConfig()

	if path := args.String("config", ""); path != "" {
		fromFile, err := ReadConfigFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		config = fromFile
	}

	config.applyEnv(getenv)

	if err := config.applyArgs(args); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (config *Config) applyEnv(getenv func(string) string) {
	envInt := func(name string, dst *int) {
		v := getenv(name)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("ERROR: Invalid %s value (%s). Must be an integer. Using %d.", name, v, *dst)
			return
		}
		*dst = n
	}

	envInt(ENV_PORT, &config.Port)
	envInt(ENV_CAPACITY, &config.Capacity)

	if v := getenv(ENV_JWT_SECRET); v != "" {
		config.JWTSecret = v
	}
	if v := getenv(ENV_API_KEY); v != "" {
		config.APIKey = v
	}
	if v := getenv(ENV_BUCKET); v != "" {
		config.Bucket = v
	}
	if v := getenv(ENV_HEALTH_URL); v != "" {
		config.HealthEndpoint = v
	}
	if v := getenv(ENV_ARCHIVE); v != "" {
		config.ArchiveRepo = v
	}
}

func (config *Config) applyArgs(args Args) error {
	var err error
	if config.Port, err = args.Int("port", config.Port); err != nil {
		return err
	}
	if config.Capacity, err = args.Int("capacity", config.Capacity); err != nil {
		return err
	}
	if config.InitialLines, err = args.Int("initial-lines", config.InitialLines); err != nil {
		return err
	}
	if config.ChunkSize, err = args.Int("chunk-size", config.ChunkSize); err != nil {
		return err
	}

	if files := args.String("files", ""); files != "" {
		for _, f := range strings.Split(files, ",") {
			if f = strings.TrimSpace(f); f != "" {
				config.Files = append(config.Files, f)
			}
		}
	}

	config.WatchDir = args.String("watch", config.WatchDir)
	config.Bucket = args.String("bucket", config.Bucket)
	config.ArchiveRepo = args.String("archive-repo", config.ArchiveRepo)
	config.FromStart = config.FromStart || args.Bool("from-start")
	config.Debug = config.Debug || args.Bool("debug")
	return nil
}

func (config *Config) Validate() error {
	if config.Capacity <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCapacity, config.Capacity)
	}
	if config.ChunkSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidChunkSize, config.ChunkSize)
	}
	if config.InitialLines < 0 {
		return fmt.Errorf("initial lines must be non-negative, got %d", config.InitialLines)
	}
	if config.PingIntervalSeconds <= 0 {
		return fmt.Errorf("ping interval must be positive, got %d", config.PingIntervalSeconds)
	}
	if config.Port <= 0 || config.Port > 65535 {
		return fmt.Errorf("invalid port %d", config.Port)
	}
	if config.Bucket != "" && config.ArchiveRepo != "" {
		return fmt.Errorf("bucket and archive repo are mutually exclusive")
	}
	if config.JWTSecret != "" {
		if _, err := hex.DecodeString(config.JWTSecret); err != nil {
			return fmt.Errorf("jwt secret must be hex encoded: %w", err)
		}
	}
	return nil
}

func (config *Config) SigningKey() []byte {
	key, err := hex.DecodeString(config.JWTSecret)
	if err != nil {
		return nil
	}
	return key
}

func (config *Config) Addr() string {
	return fmt.Sprintf(":%d", config.Port)
}
