// Package collyfetcher implements league.Fetcher on top of gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
)

// CurrentDateLayout is the layout of the current_date query parameter.
const CurrentDateLayout = "01-02-2006"

// Config controls which leagues are requested and how.
type Config struct {
	APIBaseURL string
	SportCode  string
	Status     string
	PageSize   int
	// Location decides what "today" means for current_date. Defaults to UTC.
	Location  *time.Location
	UserAgent string
	Timeout   time.Duration
}

var _ league.Fetcher = (*Fetcher)(nil)

type nower interface {
	Now() time.Time
}

// Fetcher performs the all-leagues request with a Colly collector.
type Fetcher struct {
	cfg           Config
	clock         nower
	logger        *zap.Logger
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher. The clock supplies the current_date parameter.
func New(cfg Config, clock nower, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	// Every poll hits the same URL, so revisits must be allowed.
	c := colly.NewCollector(colly.Async(false), colly.AllowURLRevisit())
	c.IgnoreRobotsTxt = true
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}

	return &Fetcher{
		cfg:           cfg,
		clock:         clock,
		logger:        logger.Named("league_api"),
		baseCollector: c,
	}
}

// RequestURL returns the all-leagues URL for the given instant.
func (f *Fetcher) RequestURL(now time.Time) string {
	date := now.In(f.cfg.Location).Format(CurrentDateLayout)
	return fmt.Sprintf(
		"%s/api/leagues/all-leagues/%s?status=%s&limit=%d&page=1&search=&indv=&page_type=sign_up&current_date=%s",
		strings.TrimRight(f.cfg.APIBaseURL, "/"),
		url.PathEscape(f.cfg.SportCode),
		url.QueryEscape(f.cfg.Status),
		f.cfg.PageSize,
		date,
	)
}

// Fetch performs one GET and returns the response body. Non-2xx statuses and
// transport errors are failures.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	var (
		body     []byte
		status   int
		fetchErr error
	)
	target := f.RequestURL(f.clock.Now())
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, &body, &status, &fetchErr)

	start := time.Now()
	if err := f.runCollector(ctx, collector, target, &fetchErr); err != nil {
		f.logger.Warn("league request failed",
			zap.String("url", target),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	f.logger.Debug("league request complete",
		zap.String("url", target),
		zap.Int("status", status),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return body, nil
}

func (f *Fetcher) configureCollectorHooks(hooks collectorHooks, body *[]byte, status *int, fetchErr *error) {
	hooks.OnResponse(func(r *colly.Response) {
		*status = r.StatusCode
		if r.StatusCode < http.StatusOK || r.StatusCode >= http.StatusMultipleChoices {
			*fetchErr = fmt.Errorf("unexpected status %d", r.StatusCode)
			return
		}
		*body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil {
			*status = r.StatusCode
		}
		*fetchErr = err
	})
}

// runCollector waits for the visit or for ctx. On cancellation the visit
// goroutine is left to finish on its own; the collector's request timeout
// bounds it, and Fetch never reads the captured results after returning an
// error, so its late writes are unobserved.
func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, target string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("league fetch canceled: %w", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return fmt.Errorf("league response failed: %w", *fetchErr)
		}
		if err != nil {
			return fmt.Errorf("league request failed: %w", err)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}
}
