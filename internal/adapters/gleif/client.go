package gleif

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Hupka/fuzzy-supplier-finder/internal/config"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/ports"
	"github.com/Hupka/fuzzy-supplier-finder/internal/core/registry"
	"go.uber.org/ratelimit"
)

var (
	_ ports.Registry      = (*Client)(nil)
	_ ports.FuzzySearcher = (*Client)(nil)
)

// StatusError is returned for any non-2xx registry response.
type StatusError struct {
	Code   int
	Status string
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status from %s: %s", e.URL, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == registry.ErrNotFound && e.Code == http.StatusNotFound
}

// Client talks to the GLEIF JSON:API. All calls are unauthenticated GETs
// and share one rate limiter.
type Client struct {
	client    *http.Client
	baseURL   *url.URL
	rlimit    ratelimit.Limiter
	userAgent string
	log       *slog.Logger
}

func New(cfg *config.Config, log *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.GLEIFBaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base url: %w", err)
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	rl := ratelimit.NewUnlimited()
	if cfg.GLEIFRateLimit > 0 {
		rl = ratelimit.New(cfg.GLEIFRateLimit, ratelimit.WithoutSlack)
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.GLEIFTimeout,
		},
		baseURL:   base,
		rlimit:    rl,
		userAgent: cfg.UserAgent,
		log:       log.With("component", "gleif"),
	}, nil
}

// LEIRecord fetches lei-records/{lei}.
func (c *Client) LEIRecord(ctx context.Context, lei string) (*registry.Document, error) {
	return c.get(ctx, c.baseURL.JoinPath("lei-records", lei).String())
}

// SearchByName queries lei-records filtered by legal name.
func (c *Client) SearchByName(ctx context.Context, name string, pageSize int) (*registry.Document, error) {
	u := c.baseURL.JoinPath("lei-records")
	q := url.Values{}
	q.Set("filter[entity.legalName]", name)
	q.Set("page[size]", strconv.Itoa(pageSize))
	u.RawQuery = q.Encode()
	return c.get(ctx, u.String())
}

// Children fetches the first page of a children listing link.
func (c *Client) Children(ctx context.Context, listing string, pageSize int) (*registry.Document, error) {
	u, err := c.resolve(listing)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("page[size]", strconv.Itoa(pageSize))
	q.Set("page[number]", "1")
	u.RawQuery = q.Encode()
	return c.get(ctx, u.String())
}

// Follow fetches an arbitrary relationship or exception link.
func (c *Client) Follow(ctx context.Context, link string) (*registry.Document, error) {
	u, err := c.resolve(link)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, u.String())
}

// FuzzyCompletions returns the registry's name completions for q.
func (c *Client) FuzzyCompletions(ctx context.Context, q string) ([]registry.Completion, error) {
	u := c.baseURL.JoinPath("fuzzycompletions")
	v := url.Values{}
	v.Set("field", "entity.legalName")
	v.Set("q", q)
	u.RawQuery = v.Encode()

	doc, err := c.get(ctx, u.String())
	if err != nil {
		return nil, err
	}

	var result []struct {
		Type       string `json:"type"`
		Attributes struct {
			Value string `json:"value"`
		} `json:"attributes"`
		Relationships struct {
			LEIRecords struct {
				Data struct {
					Type string `json:"type"`
					ID   string `json:"id"`
				} `json:"data"`
			} `json:"lei-records"`
		} `json:"relationships"`
	}
	if doc.IsEmpty() {
		return nil, nil
	}
	if err := json.Unmarshal(doc.Data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode completions: %w", err)
	}

	var out []registry.Completion
	for _, d := range result {
		if d.Type == registry.TypeFuzzyCompletion && d.Relationships.LEIRecords.Data.Type == registry.TypeLEIRecord {
			out = append(out, registry.Completion{Value: d.Attributes.Value, LEI: d.Relationships.LEIRecords.Data.ID})
		}
	}
	return out, nil
}

// resolve turns a registry link into an absolute URL. Absolute links are
// used as-is; relative ones are anchored at the base URL.
func (c *Client) resolve(link string) (*url.URL, error) {
	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("failed to parse link %q: %w", link, err)
	}
	if u.IsAbs() {
		return u, nil
	}
	if strings.HasPrefix(u.Path, "/") {
		return c.baseURL.ResolveReference(u), nil
	}
	out := c.baseURL.JoinPath(u.Path)
	out.RawQuery = u.RawQuery
	return out, nil
}

func (c *Client) get(ctx context.Context, u string) (*registry.Document, error) {
	c.rlimit.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.api+json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status, URL: u}
	}

	var doc registry.Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", u, err)
	}
	c.log.Debug("registry response", "url", u, "status", resp.StatusCode)
	return &doc, nil
}
