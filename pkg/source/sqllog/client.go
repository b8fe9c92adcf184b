package sqllog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	es7 "github.com/elastic/go-elasticsearch/v7"

	"github.com/matzehuels/flowgraph/pkg/errors"
	"github.com/matzehuels/flowgraph/pkg/observability"
	"github.com/matzehuels/flowgraph/pkg/retry"
)

// Defaults of SearchOptions.
const (
	DefaultIndexPrefix = "syslog-ng_"
	DefaultQuery       = "@message: /SQL.*/"
	DefaultLimit       = 10000
	DefaultTimeout     = 30 * time.Second
)

// ClientConfig configures the Elasticsearch connection.
type ClientConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration // per search; zero uses DefaultTimeout

	// Retry re-runs searches that fail with a transport error, a 429 or a
	// 5xx response. The zero value searches once.
	Retry retry.Policy

	// Transport overrides the HTTP transport, mostly for tests.
	Transport http.RoundTripper
}

// Client searches daily log indices.
type Client struct {
	es      *es7.Client
	timeout time.Duration
	retry   retry.Policy
	logger  *log.Logger
	now     func() time.Time
}

// NewClient creates a client. A nil logger discards log output.
func NewClient(cfg ClientConfig, logger *log.Logger) (*Client, error) {
	if err := errors.ValidateURL(cfg.URL); err != nil {
		return nil, err
	}
	es, err := es7.NewClient(es7.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "create elasticsearch client")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{es: es, timeout: timeout, retry: cfg.Retry, logger: logger, now: time.Now}, nil
}

// SearchOptions selects the messages to fetch.
type SearchOptions struct {
	IndexPrefix string // zero uses DefaultIndexPrefix
	Query       string // query_string syntax; zero uses DefaultQuery
	Limit       int    // maximum number of hits; zero uses DefaultLimit
}

func (o *SearchOptions) setDefaults() {
	if o.IndexPrefix == "" {
		o.IndexPrefix = DefaultIndexPrefix
	}
	if o.Query == "" {
		o.Query = DefaultQuery
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
}

// IndexName returns the daily index holding the logs of t's UTC date,
// e.g. syslog-ng_2017-06-03.
func IndexName(prefix string, t time.Time) string {
	return prefix + t.UTC().Format("2006-01-02")
}

// searchResponse is the subset of the _search response we read.
type searchResponse struct {
	Hits struct {
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			Source Message `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// total handles both the 7.x object form and the older plain number.
func (r *searchResponse) total() int {
	var n int
	if err := json.Unmarshal(r.Hits.Total, &n); err == nil {
		return n
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(r.Hits.Total, &obj); err == nil {
		return obj.Value
	}
	return len(r.Hits.Hits)
}

// Search fetches the messages of the last day matching opts.Query from the
// index of yesterday (UTC).
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]Message, error) {
	opts.setDefaults()
	index := IndexName(opts.IndexPrefix, c.now().Add(-24*time.Hour))

	hooks := observability.Source()
	hooks.OnFetchStart(ctx, "elasticsearch", index)
	start := time.Now()

	attempt := 0
	messages, err := retry.Do(ctx, c.retry, func(ctx context.Context) ([]Message, error) {
		attempt++
		if attempt > 1 {
			c.logger.Warn("Retrying search", "index", index, "attempt", attempt)
		}
		return c.search(ctx, index, opts)
	})
	hooks.OnFetchComplete(ctx, "elasticsearch", index, len(messages), time.Since(start), err)
	return messages, err
}

func (c *Client) search(ctx context.Context, index string, opts SearchOptions) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{"query": opts.Query},
		},
		"size": opts.Limit,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode search body")
	}

	c.logger.Info("Querying", "index", index, "query", opts.Query, "limit", opts.Limit)

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrCodeTimeout, err, "search %s timed out after %s", index, c.timeout)
		}
		return nil, retry.Transient(errors.Wrap(errors.ErrCodeNetwork, err, "search %s", index))
	}
	defer res.Body.Close()

	if res.IsError() {
		detail, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		err := errors.New(errors.ErrCodeNetwork, "search %s: %s: %s", index, res.Status(), bytes.TrimSpace(detail))
		if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500 {
			return nil, retry.Transient(err)
		}
		return nil, err
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode search response")
	}

	messages := make([]Message, len(parsed.Hits.Hits))
	for i, hit := range parsed.Hits.Hits {
		messages[i] = hit.Source
	}
	c.logger.Info("Got results", "total", parsed.total(), "fetched", len(messages))
	return messages, nil
}
