package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ledger_reporter/internal/auth"
	"ledger_reporter/internal/entity"
	"ledger_reporter/internal/pkg/metrics"
	"ledger_reporter/internal/port"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KeepWhile is the early-stop predicate of a paginated fetch. Accumulation
// stops at the first record for which it returns false; that record and
// everything after it are excluded.
type KeepWhile func(record jsoniter.RawMessage) bool

// TransportError is a fatal HTTP or network failure during a signed GET. It
// is not retried; it aborts the whole run.
type TransportError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error for %s (status %d): %v", e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error for %s: %v", e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// CoinbaseClient defines the interface for fetching raw records from the
// Coinbase API.
type CoinbaseClient interface {
	// Fetch returns the records under path. With expand false only the first
	// page is taken; with expand true pagination cursors are followed until a
	// terminal page or until keepWhile rejects a record. Completed result
	// sets are cached per (path, expand) and a cache hit is returned verbatim
	// without re-applying the predicate.
	Fetch(ctx context.Context, path string, expand bool, keepWhile KeepWhile) ([]jsoniter.RawMessage, error)
}

// coinbaseClientImpl is the fasthttp implementation of CoinbaseClient.
type coinbaseClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	signer  *auth.Signer
	cache   port.RequestCache
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewCoinbaseClient creates a new CoinbaseClient. The cache handle is
// injected so callers can swap in an in-memory backing store.
func NewCoinbaseClient(
	baseURL string,
	timeout time.Duration,
	rateLimit float64,
	burstLimit int,
	signer *auth.Signer,
	cache port.RequestCache,
	logger *zap.Logger,
) CoinbaseClient {
	return &coinbaseClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		signer:  signer,
		cache:   cache,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), burstLimit),
		logger:  logger.Named("CoinbaseClient"),
	}
}

// Fetch implements the CoinbaseClient interface.
func (c *coinbaseClientImpl) Fetch(ctx context.Context, path string, expand bool, keepWhile KeepWhile) ([]jsoniter.RawMessage, error) {
	if records, ok := c.cache.Get(path, expand); ok {
		metrics.CacheHits.Inc()
		c.logger.Debug("Returning cached result set",
			zap.String("path", path),
			zap.Bool("expand", expand),
			zap.Int("recordCount", len(records)))
		return records, nil
	}
	metrics.CacheMisses.Inc()

	page, err := c.getPage(ctx, path)
	if err != nil {
		return nil, err
	}

	if !expand {
		if err := c.cache.Put(path, expand, page.Data); err != nil {
			return nil, fmt.Errorf("failed to cache result set for %s: %w", path, err)
		}
		return page.Data, nil
	}

	results := make([]jsoniter.RawMessage, 0, len(page.Data))
	for {
		// The predicate failing is control flow, not an error: drop the
		// record, everything after it, and all further pages.
		stopped := false
		for _, record := range page.Data {
			if keepWhile != nil && !keepWhile(record) {
				stopped = true
				break
			}
			results = append(results, record)
		}
		if stopped || page.OutOfData() {
			break
		}

		page, err = c.getPage(ctx, page.Pagination.NextURI)
		if err != nil {
			return nil, err
		}
	}

	if err := c.cache.Put(path, expand, results); err != nil {
		return nil, fmt.Errorf("failed to cache result set for %s: %w", path, err)
	}
	c.logger.Debug("Fetched result set",
		zap.String("path", path),
		zap.Bool("expand", expand),
		zap.Int("recordCount", len(results)))
	return results, nil
}

// getPage issues one signed GET and decodes the page envelope. The token is
// minted fresh for every call.
func (c *coinbaseClientImpl) getPage(ctx context.Context, path string) (*entity.PageResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &TransportError{Path: path, Err: fmt.Errorf("rate limiter wait aborted: %w", err)}
	}

	token, err := c.signer.Sign(fasthttp.MethodGet, path)
	if err != nil {
		return nil, err
	}

	requestURL := c.baseURL + path
	c.logger.Debug("GET", zap.String("path", path))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	deadline, ok := ctx.Deadline()
	if ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			c.logger.Error("Failed to execute request", zap.String("path", path), zap.Error(err))
			return nil, &TransportError{Path: path, Err: err}
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			c.logger.Error("Failed to execute request (with default timeout)", zap.String("path", path), zap.Error(err))
			return nil, &TransportError{Path: path, Err: err}
		}
	}

	metrics.PagesFetched.Inc()
	rawBody := resp.Body()

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("API request failed",
			zap.String("path", path),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, &TransportError{
			Path:       path,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status: %s", string(rawBody)),
		}
	}

	var page entity.PageResponse
	if err := json.Unmarshal(rawBody, &page); err != nil {
		c.logger.Error("Failed to unmarshal page response",
			zap.String("path", path),
			zap.ByteString("responseBody", rawBody),
			zap.Error(err))
		return nil, &TransportError{
			Path:       path,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("failed to unmarshal page response: %w", err),
		}
	}
	return &page, nil
}
