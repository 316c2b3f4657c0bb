// Package oai implements the subset of the OAI-PMH protocol needed to
// harvest Dublin Core records from an institutional repository:
// date-windowed ListRecords with resumption-token pagination.
package oai

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

const (
	// DefaultMetadataPrefix is the Dublin Core metadata schema every
	// OAI-PMH repository is required to support.
	DefaultMetadataPrefix = "oai_dc"

	dateLayout = "2006-01-02"
)

// Config controls how the OAI-PMH client talks to the repository.
type Config struct {
	BaseURL        string
	MetadataPrefix string
	HTTPClient     *retryablehttp.Client
	// RequestsPerSecond throttles page fetches; <= 0 means no throttle.
	RequestsPerSecond float64
}

// Client is a stateless OAI-PMH harvesting client. Pagination state lives in
// the Cursor returned by ListRecords.
type Client struct {
	baseURL        string
	metadataPrefix string
	http           *retryablehttp.Client
	limiter        *rate.Limiter
}

// NewClient builds a client for the given repository endpoint.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("oai: base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("oai: invalid base URL %q: %w", cfg.BaseURL, err)
	}

	prefix := cfg.MetadataPrefix
	if prefix == "" {
		prefix = DefaultMetadataPrefix
	}

	client := cfg.HTTPClient
	if client == nil {
		client = retryablehttp.NewClient()
		client.RetryMax = 3
		client.HTTPClient.Timeout = 60 * time.Second
		client.Logger = nil
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		metadataPrefix: prefix,
		http:           client,
		limiter:        limiter,
	}, nil
}

// ListOptions bounds a ListRecords harvest. Zero times mean unbounded; both
// bounds are inclusive calendar dates, per the protocol.
type ListOptions struct {
	From  time.Time
	Until time.Time
}

// ListRecords opens a lazy, paginated listing of records. The first page is
// fetched eagerly so that an unreachable or misconfigured repository fails
// the call instead of the first Next.
func (c *Client) ListRecords(ctx context.Context, opts ListOptions) (*Cursor, error) {
	params := url.Values{}
	params.Set("verb", "ListRecords")
	params.Set("metadataPrefix", c.metadataPrefix)
	if !opts.From.IsZero() {
		params.Set("from", opts.From.Format(dateLayout))
	}
	if !opts.Until.IsZero() {
		params.Set("until", opts.Until.Format(dateLayout))
	}

	cur := &Cursor{client: c}
	if err := cur.fetchPage(ctx, params); err != nil {
		return nil, err
	}
	return cur, nil
}

func (c *Client) request(ctx context.Context, params url.Values) (*pmhResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	reqURL := c.baseURL + "?" + params.Encode()
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oai: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oai: repository returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oai: reading response: %w", err)
	}

	var parsed pmhResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("oai: malformed response: %w", err)
	}
	return &parsed, nil
}
