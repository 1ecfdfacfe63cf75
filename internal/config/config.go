package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Airtable AirtableConfig
	Media    MediaConfig
	Intake   IntakeConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	Timeout    time.Duration
	DelayMin   time.Duration
	DelayMax   time.Duration
	UserAgents []string
}

type AirtableConfig struct {
	APIKey       string
	BaseID       string
	Table        string
	AuctionTable string
}

type MediaConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// IntakeConfig names the attachment-typed fields of the record store. These
// must match the store's schema exactly, including spaces and capitalization.
type IntakeConfig struct {
	PhotosField           string
	InspectionPhotosField string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// A missing .env file is fine; real env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			Timeout:    getDurationOrDefault("SCRAPER_TIMEOUT", 15*time.Second),
			DelayMin:   getDurationOrDefault("SCRAPER_DELAY_MIN", 1*time.Second),
			DelayMax:   getDurationOrDefault("SCRAPER_DELAY_MAX", 3*time.Second),
			UserAgents: getStringSliceOrDefault("SCRAPER_USER_AGENTS", defaultUserAgents()),
		},
		Airtable: AirtableConfig{
			APIKey:       os.Getenv("AIRTABLE_API_KEY"),
			BaseID:       os.Getenv("AIRTABLE_BASE_ID"),
			Table:        getEnvOrDefault("AIRTABLE_TABLE_NAME", "Items"),
			AuctionTable: getEnvOrDefault("AIRTABLE_AUCTION_TABLE", "Auctions"),
		},
		Media: MediaConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			Folder:    getEnvOrDefault("CLOUDINARY_FOLDER", "inspection_photos"),
		},
		Intake: IntakeConfig{
			PhotosField:           getEnvOrDefault("PHOTOS_FIELD_NAME", "Item Photos"),
			InspectionPhotosField: getEnvOrDefault("INSPECTION_PHOTOS_FIELD_NAME", "Inspection Photos"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if len(c.Scraper.UserAgents) < 4 {
		return fmt.Errorf("SCRAPER_USER_AGENTS must list at least 4 identities")
	}
	if c.Scraper.DelayMin > c.Scraper.DelayMax {
		return fmt.Errorf("SCRAPER_DELAY_MIN cannot be greater than SCRAPER_DELAY_MAX")
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("SCRAPER_TIMEOUT must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getStringSliceOrDefault(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func defaultUserAgents() []string {
	return []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/121.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
	}
}
