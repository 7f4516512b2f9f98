package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"sjsage522/paperworker/config"
	"sjsage522/paperworker/internal/crawler"
	"sjsage522/paperworker/logger"
	"sjsage522/paperworker/services/archive"
	"sjsage522/paperworker/services/cache"
	"sjsage522/paperworker/services/notifier"
	"sjsage522/paperworker/services/publisher"
	"sjsage522/paperworker/services/worker"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var watch bool

var rootCmd = &cobra.Command{
	Use:   "paperworker [date]",
	Short: "paperworker scrapes the Hugging Face papers listing, posts it to Slack and logs it to GitHub.",
	Long: "paperworker fetches the papers listing (optionally for a YYYY-MM-DD date), " +
		"announces the papers on Slack and appends them to the day's log batch in a GitHub repository.",
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep running and scrape the current listing every CRAWL_INTERVAL_SECONDS")
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	// Set up context with cancellation on shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log := logger.Default
	ctx := cmd.Context()

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Bool("watch", watch).
		Msg("Starting application")
	if logger.IsDebugEnabled() {
		log.Debug().
			Str("papers_url", cfg.PapersURL).
			Str("repository", cfg.GitHubOwner+"/"+cfg.GitHubRepo).
			Str("log_dir", cfg.LogDir).
			Int("chunk_size", cfg.SlackChunkSize).
			Dur("chunk_delay", cfg.SlackChunkDelay).
			Msg("Configuration")
	}

	services := initializeServices(ctx, cfg)
	defer services.Cleanup()

	w := worker.NewWorker(
		crawler.NewListingFetcher(cfg.PapersURL, cfg.HTTPTimeout, services.Cache, cfg.FetchBlock),
		crawler.NewExtractor(),
		notifier.NewNotifier(
			notifier.NewSlackWebhook(cfg.SlackWebhookURL, cfg.HTTPTimeout),
			cfg.SlackChunkSize,
			cfg.SlackChunkDelay,
		),
		archive.NewArchiver(archive.NewGitHubStore(archive.GitHubConfig{
			APIURL:  cfg.GitHubAPIURL,
			Token:   cfg.GitHubToken,
			Owner:   cfg.GitHubOwner,
			Repo:    cfg.GitHubRepo,
			Branch:  cfg.GitHubBranch,
			Dir:     cfg.LogDir,
			Timeout: cfg.HTTPTimeout,
		})),
		services.Publisher,
		cfg.CrawlInterval,
	)

	if watch {
		if len(args) > 0 {
			return fmt.Errorf("a date cannot be combined with --watch")
		}
		log.Info().Dur("crawl_interval", cfg.CrawlInterval).Msg("Starting paper worker")
		if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		log.Info().Msg("Shutting down gracefully...")
		return nil
	}

	var date string
	if len(args) > 0 {
		date = args[0]
	}

	result := w.Run(ctx, date)
	log.Info().
		Str("run_id", result.RunID).
		Int("papers_count", result.PapersCount).
		Bool("notify_success", result.NotifySuccess).
		Bool("persist_success", result.PersistSuccess).
		Int("new_count", result.NewCount).
		Time("timestamp", result.Timestamp).
		Msg("Scraper finished")
	return nil
}

// Services holds the optional backing services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			logger.LogError("publisher", err, "Failed to close publisher")
		}
	}
}

// initializeServices connects the services that have an address configured
func initializeServices(ctx context.Context, cfg *config.Config) *Services {
	services := &Services{}

	if cfg.MemcacheAddr != "" {
		memcache := cache.NewMemcacheService(cfg.MemcacheAddr, "paperworker")
		if err := memcache.Ping(); err != nil {
			logger.ForCache().Warn().Err(err).Str("addr", cfg.MemcacheAddr).Msg("Memcache is not reachable yet")
		}
		services.Cache = memcache
		logger.Info("Using Memcache at %s", cfg.MemcacheAddr)
	} else {
		logger.Warn("MEMCACHE_ADDR not set, rate-limit blocking disabled")
	}

	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			logger.ForPublisher().Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("Redis is not reachable yet")
		}
		services.Publisher = redisPublisher
		logger.Info("Using Redis at %s (DB: %d, Stream: %s)", cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	return services
}
