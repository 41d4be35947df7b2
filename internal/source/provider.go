package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"

	verrors "github.com/FocuswithJustin/versemem/core/errors"
	"github.com/FocuswithJustin/versemem/internal/validation"
)

// Provider returns the raw text of a source.
type Provider interface {
	Fetch(ctx context.Context, sourceID string) (string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, sourceID string) (string, error)

func (f ProviderFunc) Fetch(ctx context.Context, sourceID string) (string, error) {
	return f(ctx, sourceID)
}

// HTTPProvider downloads sources listed in a Registry.
type HTTPProvider struct {
	registry *Registry
	client   *http.Client
	attempts uint
	delay    time.Duration
}

// HTTPOption configures an HTTPProvider.
type HTTPOption func(*HTTPProvider)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) HTTPOption {
	return func(p *HTTPProvider) { p.client = c }
}

// WithRetry sets the number of attempts and the base delay between them.
func WithRetry(attempts uint, delay time.Duration) HTTPOption {
	return func(p *HTTPProvider) {
		if attempts > 0 {
			p.attempts = attempts
		}
		p.delay = delay
	}
}

// NewHTTPProvider creates a provider with a 30 second client timeout and
// three attempts one second apart.
func NewHTTPProvider(registry *Registry, opts ...HTTPOption) *HTTPProvider {
	p := &HTTPProvider{
		registry: registry,
		client:   &http.Client{Timeout: 30 * time.Second},
		attempts: 3,
		delay:    time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Fetch downloads the source text. Client errors (4xx) are not retried.
// Every failure is a *errors.SourceUnavailableError.
func (p *HTTPProvider) Fetch(ctx context.Context, sourceID string) (string, error) {
	url, err := p.registry.URL(sourceID)
	if err != nil {
		return "", verrors.NewSourceUnavailable(sourceID, "", err)
	}

	var text string
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := p.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return retry.Unrecoverable(fmt.Errorf("unexpected status: %d", resp.StatusCode))
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("unexpected status: %d", resp.StatusCode)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			text = string(body)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", verrors.NewSourceUnavailable(sourceID, url, err)
	}
	return text, nil
}

// FileProvider reads <dir>/<sourceID>.txt.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a provider rooted at dir.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

func (p *FileProvider) Fetch(ctx context.Context, sourceID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", verrors.NewSourceUnavailable(sourceID, p.dir, err)
	}
	if err := validation.SourceID(sourceID); err != nil {
		return "", verrors.NewSourceUnavailable(sourceID, p.dir, err)
	}

	path := filepath.Join(p.dir, sourceID+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", verrors.NewSourceUnavailable(sourceID, path, verrors.NewNotFound("file", path))
		}
		return "", verrors.NewSourceUnavailable(sourceID, path, verrors.NewIO("read", path, err))
	}
	return string(data), nil
}

// Chain tries each provider in order and returns the first success, or the
// last failure.
func Chain(providers ...Provider) Provider {
	return ProviderFunc(func(ctx context.Context, sourceID string) (string, error) {
		var err error = verrors.NewSourceUnavailable(sourceID, "", verrors.NewNotFound("provider", ""))
		for _, p := range providers {
			text, perr := p.Fetch(ctx, sourceID)
			if perr == nil {
				return text, nil
			}
			err = perr
		}
		return "", err
	})
}
