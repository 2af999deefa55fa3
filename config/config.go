package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// APIKeys holds the credentials for external services.
type APIKeys struct {
	HuggingFace string `json:"HUGGING_FACE_API_TOKEN"`
}

// S3Credentials holds the settings for the persisted object store.
type S3Credentials struct {
	Bucket        string `json:"S3_BUCKET"`
	Region        string `json:"S3_REGION"`
	KeyPrefix     string `json:"S3_KEY_PREFIX"`
	PublicBaseURL string `json:"S3_PUBLIC_BASE_URL"`
}

// Settings holds optional application settings.
type Settings struct {
	Port            string `json:"PORT"`
	StorageStrategy string `json:"STORAGE_STRATEGY"` // "inline", "s3", or "local"
	SaveLocalCopy   bool   `json:"SAVE_LOCAL_COPY"`
	LocalImageDir   string `json:"LOCAL_IMAGE_DIR"`
	HistoryFile     string `json:"HISTORY_FILE"`
	CacheTTLSeconds int    `json:"CACHE_TTL_SECONDS"`
}

// Config holds the entire application configuration.
type Config struct {
	APIKeys  APIKeys       `json:"API_KEYS"`
	S3       S3Credentials `json:"S3_CREDENTIALS"`
	Settings Settings      `json:"SETTINGS"`
}

// AppConfig is the global configuration instance.
var AppConfig *Config

// LoadConfig loads the configuration from defaults, conf.json, .env, and environment variables.
func LoadConfig() {
	// 1. Set default values
	AppConfig = &Config{
		S3: S3Credentials{
			KeyPrefix: "covers/",
		},
		Settings: Settings{
			Port:            "8080",
			StorageStrategy: "inline",
			SaveLocalCopy:   false,
			LocalImageDir:   "images",
			HistoryFile:     "history.json",
			CacheTTLSeconds: 600,
		},
	}

	// 2. Load from conf.json
	file, err := os.Open("conf.json")
	if err == nil {
		defer file.Close()
		decoder := json.NewDecoder(file)
		if err := decoder.Decode(AppConfig); err != nil {
			log.Printf("Warning: Could not decode conf.json: %v", err)
		} else {
			log.Println("Loaded configuration from conf.json")
		}
	} else if !os.IsNotExist(err) {
		log.Printf("Warning: Could not open conf.json: %v", err)
	}

	// 3. Load from .env file (will override conf.json)
	godotenv.Load()

	// 4. Load from environment variables (will override everything)
	loadFromEnv()

	log.Println("Configuration loaded successfully.")
}

// loadFromEnv loads configuration from environment variables, overriding existing values.
func loadFromEnv() {
	// HUGGING_FACE_API_TOKEN is the preferred name; HF_API_TOKEN is the
	// older alternate and only applies when the preferred one is absent.
	if key := os.Getenv("HUGGING_FACE_API_TOKEN"); key != "" {
		AppConfig.APIKeys.HuggingFace = key
	} else if key := os.Getenv("HF_API_TOKEN"); key != "" {
		AppConfig.APIKeys.HuggingFace = key
	}

	// Object store
	if v := os.Getenv("S3_BUCKET"); v != "" {
		AppConfig.S3.Bucket = v
	}
	if v := os.Getenv("S3_REGION"); v != "" {
		AppConfig.S3.Region = v
	}
	if v := os.Getenv("S3_KEY_PREFIX"); v != "" {
		AppConfig.S3.KeyPrefix = v
	}
	if v := os.Getenv("S3_PUBLIC_BASE_URL"); v != "" {
		AppConfig.S3.PublicBaseURL = v
	}

	// Settings
	if v := os.Getenv("PORT"); v != "" {
		AppConfig.Settings.Port = v
	}
	if v := os.Getenv("STORAGE_STRATEGY"); v != "" {
		AppConfig.Settings.StorageStrategy = v
	}
	if v := os.Getenv("SAVE_LOCAL_COPY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			AppConfig.Settings.SaveLocalCopy = b
		}
	}
	if v := os.Getenv("LOCAL_IMAGE_DIR"); v != "" {
		AppConfig.Settings.LocalImageDir = v
	}
	if v := os.Getenv("HISTORY_FILE"); v != "" {
		AppConfig.Settings.HistoryFile = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			AppConfig.Settings.CacheTTLSeconds = n
		}
	}
}

// CacheTTL returns the source image cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Settings.CacheTTLSeconds) * time.Second
}
