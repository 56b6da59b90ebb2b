package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appErrors "github.com/erfannorozi54/Rashed-sub001/pkg/errors"
)

const maxLogoBytes = 2 << 20

// BrandingConfig points at the academy logo and bounds how long a fetched copy is served.
type BrandingConfig struct {
	LogoURL      string
	TTL          time.Duration
	FetchTimeout time.Duration
}

// Logo is a fetched copy of the academy logo.
type Logo struct {
	Data        []byte
	ContentType string
	FetchedAt   time.Time
}

// BrandingService keeps an in-memory copy of the academy logo and refreshes it from the upstream URL.
type BrandingService struct {
	client *http.Client
	logger *zap.Logger
	cfg    BrandingConfig
	now    func() time.Time

	mu   sync.RWMutex
	logo *Logo
}

// NewBrandingService constructs BrandingService. A nil client gets one bounded by FetchTimeout.
func NewBrandingService(client *http.Client, logger *zap.Logger, cfg BrandingConfig) *BrandingService {
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrandingService{client: client, logger: logger, cfg: cfg, now: time.Now}
}

// Logo returns the cached logo, fetching it first when missing or older than the TTL. When the
// upstream is down a stale copy is still served.
func (s *BrandingService) Logo(ctx context.Context) (*Logo, error) {
	s.mu.RLock()
	cached := s.logo
	s.mu.RUnlock()
	if cached != nil && s.now().Sub(cached.FetchedAt) < s.cfg.TTL {
		return cached, nil
	}

	fresh, err := s.Refresh(ctx)
	if err != nil {
		if cached != nil {
			s.logger.Warn("serving stale logo", zap.Error(err))
			return cached, nil
		}
		return nil, err
	}
	return fresh, nil
}

// Refresh fetches the logo from the upstream URL and replaces the cached copy.
func (s *BrandingService) Refresh(ctx context.Context) (*Logo, error) {
	if s.cfg.LogoURL == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "logo is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.LogoURL, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "invalid logo url")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamFetch.Code, appErrors.ErrUpstreamFetch.Status, "failed to fetch logo")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, appErrors.Wrap(fmt.Errorf("status %d", resp.StatusCode), appErrors.ErrUpstreamFetch.Code, appErrors.ErrUpstreamFetch.Status, "logo upstream returned an error")
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstreamFetch.Code, appErrors.ErrUpstreamFetch.Status, "failed to read logo")
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	logo := &Logo{Data: data, ContentType: contentType, FetchedAt: s.now()}
	s.mu.Lock()
	s.logo = logo
	s.mu.Unlock()

	s.logger.Info("logo refreshed", zap.Int("bytes", len(data)), zap.String("content_type", contentType))
	return logo, nil
}

// Warm fills the cache once, bounded by FetchTimeout. Failures are logged and left to Logo and the
// scheduled refresh.
func (s *BrandingService) Warm(ctx context.Context) {
	if s.cfg.LogoURL == "" {
		return
	}
	s.refreshBounded(ctx, "logo warm-up failed")
}

// Schedule registers a periodic refresh on the cron scheduler.
func (s *BrandingService) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	if spec == "" {
		spec = "@every 1h"
	}
	return c.AddFunc(spec, func() {
		s.refreshBounded(context.Background(), "scheduled logo refresh failed")
	})
}

func (s *BrandingService) refreshBounded(ctx context.Context, failure string) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn(failure, zap.Error(err))
	}
}
