package crawler

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sjsage522/paperworker/helpers"
	"sjsage522/paperworker/logger"
	"sjsage522/paperworker/pkg/errors"
	"sjsage522/paperworker/services/cache"
)

// DefaultBlockKey is the cache key that marks the listing as rate limited
const DefaultBlockKey = "papers_rate_limited"

// ListingFetcher downloads listing pages, refusing to hit the site while
// a rate-limit block is recorded in the cache.
type ListingFetcher struct {
	URL       string
	CacheKey  string
	CacheSvc  cache.CacheService
	BlockTime time.Duration
	client    *http.Client
	log       *logger.Logger
}

var _ ListingSource = (*ListingFetcher)(nil)

// NewListingFetcher creates a fetcher for the listing at listURL.
// cacheSvc may be nil, which disables rate-limit blocking.
func NewListingFetcher(listURL string, timeout time.Duration, cacheSvc cache.CacheService, blockTime time.Duration) *ListingFetcher {
	return &ListingFetcher{
		URL:       strings.TrimRight(listURL, "/"),
		CacheKey:  DefaultBlockKey,
		CacheSvc:  cacheSvc,
		BlockTime: blockTime,
		client:    &http.Client{Timeout: timeout},
		log:       logger.ForCrawler(),
	}
}

// ListingURL returns the listing page for date, or the default listing when date is empty
func (f *ListingFetcher) ListingURL(date string) string {
	date = strings.TrimSpace(date)
	if date == "" {
		return f.URL
	}
	return f.URL + "/date/" + url.PathEscape(date)
}

// FetchListing fetches the listing page as UTF-8 markup
func (f *ListingFetcher) FetchListing(ctx context.Context, date string) (io.Reader, error) {
	if f.blocked() {
		return nil, errors.NewRateLimit("crawler", f.BlockTime)
	}

	target := f.ListingURL(date)
	f.log.Info().Str("url", target).Msg("Fetching listing")

	body, err := helpers.FetchWithRandomHeaders(ctx, f.client, target)
	if err != nil {
		var rateErr *helpers.RateLimitedError
		if stderrors.As(err, &rateErr) {
			f.block()
			return nil, errors.New(errors.ErrorTypeRateLimit, "crawler", "listing rate limited", err)
		}
		return nil, errors.NewNetwork("crawler", "fetch listing", err)
	}

	return body, nil
}

func (f *ListingFetcher) blocked() bool {
	if f.CacheSvc == nil || f.CacheKey == "" {
		return false
	}
	_, err := f.CacheSvc.Get(f.CacheKey)
	if err == nil {
		return true
	}
	if !stderrors.Is(err, cache.ErrMiss) {
		f.log.Warn().Err(errors.NewCache("crawler", "read block marker", err)).Msg("Ignoring cache error")
	}
	return false
}

func (f *ListingFetcher) block() {
	if f.CacheSvc == nil || f.CacheKey == "" || f.BlockTime <= 0 {
		return
	}
	seconds := strconv.Itoa(int(f.BlockTime / time.Second))
	if err := f.CacheSvc.Set(f.CacheKey, []byte(seconds), f.BlockTime); err != nil {
		f.log.Warn().Err(errors.NewCache("crawler", "write block marker", err)).Msg("Failed to record rate limit")
	}
}
