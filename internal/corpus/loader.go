package corpus

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/document"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/resilience"
)

const maxSourceBytes = 64 << 20

// Loader fetches corpus sources. Remote fetches go through a retry loop and
// a circuit breaker shared by all calls on the same Loader.
type Loader struct {
	client  *http.Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	logger  *slog.Logger
}

type LoaderOption func(*Loader)

func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

func WithRetry(cfg resilience.RetryConfig) LoaderOption {
	return func(l *Loader) { l.retry = cfg }
}

func WithBreaker(cb *resilience.CircuitBreaker) LoaderOption {
	return func(l *Loader) { l.breaker = cb }
}

func NewLoader(cfg config.CorpusConfig, opts ...LoaderOption) *Loader {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	l := &Loader{
		client: &http.Client{Timeout: timeout},
		retry: resilience.RetryConfig{
			MaxAttempts:  cfg.FetchRetries,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
		breaker: resilience.NewCircuitBreaker("corpus-fetch", resilience.CircuitBreakerConfig{
			FailureThreshold: 3,
			ResetTimeout:     30 * time.Second,
		}),
		logger: slog.Default().With("component", "corpus-loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Fetch returns the text at source, a local path or an http(s) URL. HTML
// responses and .html files are reduced to their visible text.
func (l *Loader) Fetch(ctx context.Context, source string) (string, error) {
	if source == "" {
		return "", apperrors.Invalidf("corpus source is empty")
	}
	if !isRemote(source) {
		data, err := os.ReadFile(source)
		if err != nil {
			return "", fmt.Errorf("reading corpus %s: %w", source, err)
		}
		if ext := strings.ToLower(path.Ext(source)); ext == ".html" || ext == ".htm" {
			return HTMLText(data)
		}
		return string(data), nil
	}

	var text string
	err := resilience.Retry(ctx, "corpus-fetch", l.retry, func() error {
		return l.breaker.Execute(func() error {
			var err error
			text, err = l.download(ctx, source)
			return err
		})
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperrors.ErrSourceUnavailable, source, err)
	}
	return text, nil
}

func (l *Loader) download(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", resilience.Permanent(fmt.Errorf("building request: %w", err))
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("downloading %s: status %d", url, resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", resilience.Permanent(err)
		}
		return "", err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}
	l.logger.Info("corpus downloaded", "url", url, "bytes", len(body))

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/html" {
		return HTMLText(body)
	}
	return string(body), nil
}

// Load fetches cfg.Source, slices [StartLine, EndLine) and extracts
// documents with cfg.Pattern.
func (l *Loader) Load(ctx context.Context, cfg config.CorpusConfig, opts ...document.Option) ([]*document.Document, error) {
	pattern, err := CompilePattern(cfg.Pattern)
	if err != nil {
		return nil, apperrors.Invalidf("%v", err)
	}
	text, err := l.Fetch(ctx, cfg.Source)
	if err != nil {
		return nil, err
	}
	text = SliceLines(text, cfg.StartLine, cfg.EndLine)

	if cfg.Author != "" {
		opts = append(opts, document.WithAuthor(cfg.Author))
	}
	origin := cfg.Origin
	if origin == "" {
		origin = cfg.Source
	}
	opts = append(opts, document.WithOrigin(origin))

	docs := Extract(text, pattern, opts...)
	l.logger.Info("corpus loaded", "source", cfg.Source, "documents", len(docs))
	return docs, nil
}
