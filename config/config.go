package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"sjsage522/paperworker/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	// Slack configuration
	SlackWebhookURL string
	SlackChunkSize  int
	SlackChunkDelay time.Duration

	// GitHub log store configuration
	GitHubToken  string
	GitHubRepo   string
	GitHubOwner  string
	GitHubAPIURL string
	GitHubBranch string
	LogDir       string

	// Crawler configuration
	PapersURL     string
	HTTPTimeout   time.Duration
	FetchBlock    time.Duration
	CrawlInterval time.Duration

	// Redis configuration, disabled when RedisAddr is empty
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration, disabled when MemcacheAddr is empty
	MemcacheAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		SlackWebhookURL: os.Getenv("SLACK_WEBHOOK_URL"),
		SlackChunkSize:  getEnvInt("SLACK_CHUNK_SIZE", 20),
		SlackChunkDelay: getEnvSeconds("SLACK_CHUNK_DELAY_SECONDS", 1),

		GitHubToken:  os.Getenv("HF_GITHUB_TOKEN"),
		GitHubRepo:   os.Getenv("HF_REPO_NAME"),
		GitHubOwner:  os.Getenv("HF_REPO_OWNER"),
		GitHubAPIURL: getEnv("GITHUB_API_URL", "https://api.github.com"),
		GitHubBranch: getEnv("GITHUB_BRANCH", "main"),
		LogDir:       getEnv("LOG_DIR", "logs"),

		PapersURL:     getEnv("PAPERS_URL", "https://huggingface.co/papers"),
		HTTPTimeout:   getEnvSeconds("HTTP_TIMEOUT_SECONDS", 30),
		FetchBlock:    getEnvSeconds("FETCH_BLOCK_SECONDS", 300),
		CrawlInterval: getEnvSeconds("CRAWL_INTERVAL_SECONDS", 3600),

		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "papers"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 1000),

		MemcacheAddr: os.Getenv("MEMCACHE_ADDR"),

		Environment: getEnv("PAPERS_ENVIRONMENT", "development"),
	}
}

// Validate checks that every required setting is present
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"SLACK_WEBHOOK_URL", c.SlackWebhookURL},
		{"HF_GITHUB_TOKEN", c.GitHubToken},
		{"HF_REPO_NAME", c.GitHubRepo},
		{"HF_REPO_OWNER", c.GitHubOwner},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.key)
		}
	}
	if len(missing) > 0 {
		return errors.NewConfiguration("missing required environment variables: "+strings.Join(missing, ", "), nil)
	}

	if c.RedisAddr != "" && c.RedisStreamCount < 1 {
		return errors.NewConfiguration("REDIS_STREAM_COUNT must be at least 1", nil)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}
