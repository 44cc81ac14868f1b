package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultUserAgent identifies requests as a desktop browser; several sources reject bot agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultTimeout bounds every request when Options.Timeout is unset.
const DefaultTimeout = 15 * time.Second

// Client performs single-attempt GET requests.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
}

// Options describes the fixed identity and transport policy of a client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	// InsecureSkipVerify disables certificate validation. Only the article
	// client enables it, for hosts with broken certificate chains.
	InsecureSkipVerify bool
}

type restyClient struct {
	r *resty.Client
}

// NewRestyClient builds a resty-backed client with the given timeout and defaults.
func NewRestyClient(timeout time.Duration) Client {
	return New(Options{Timeout: timeout})
}

// New builds a resty-backed client from opts. Retries are disabled.
func New(opts Options) Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}

	r := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", ua)
	for k, v := range opts.Headers {
		if strings.TrimSpace(k) == "" {
			continue
		}
		r.SetHeader(k, v)
	}
	if opts.InsecureSkipVerify {
		r.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec // scoped to article fetches
	}

	return &restyClient{r: r}
}

// Get issues a GET with optional per-request headers. Non-2xx statuses are not
// errors here; callers inspect StatusCode.
func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req := c.r.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	return resp, nil
}
