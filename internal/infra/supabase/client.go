// Package supabase implements port.LedgerStore on Supabase
// (PostgREST + Postgres RPC). It is the hosted alternative to the
// embedded SQLite backend: same interface, same semantics, with the
// multi-row mutations delegated to SQL functions so they stay atomic.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/jpolanco/cardwise/internal/domain"
	"github.com/jpolanco/cardwise/internal/infra/observability"
	"github.com/jpolanco/cardwise/internal/infra/resilience"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase PostgREST API. A bulkhead
// caps in-flight requests at cfg.MaxConcurrency.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	bh             *resilience.Bulkhead
	cfg            resilience.Config
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewClient creates a Supabase client.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 10
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		bh:             resilience.NewBulkhead(maxConcurrency),
		cfg:            cfg,
		metrics:        metrics,
		logger:         logger,
	}
}

// Ping checks PostgREST reachability.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doGet(ctx, "checking_account?select=id&limit=1")
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase", Err: err}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, prefer string) {
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.serviceRoleKey))
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
}

// doGet executes an authenticated GET against PostgREST.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	if err := c.bh.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bh.Release()

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: GET failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: GET non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase GET %s returned %d: %s", path, resp.StatusCode, string(body))
	}
	return body, nil
}

// doPost inserts a row and returns the representation.
func (c *Client) doPost(ctx context.Context, table string, data map[string]any) ([]byte, error) {
	return c.doWrite(ctx, http.MethodPost, table, data, "return=representation")
}

// doPatch updates matching rows.
func (c *Client) doPatch(ctx context.Context, path string, data map[string]any) error {
	_, err := c.doWrite(ctx, http.MethodPatch, path, data, "return=minimal")
	return err
}

// doDelete removes matching rows.
func (c *Client) doDelete(ctx context.Context, path string) error {
	_, err := c.doWrite(ctx, http.MethodDelete, path, nil, "")
	return err
}

// doRPC calls a Postgres function through PostgREST. Used for every
// mutation that must stay atomic across rows.
func (c *Client) doRPC(ctx context.Context, fn string, args map[string]any) ([]byte, error) {
	return c.doWrite(ctx, http.MethodPost, "rpc/"+fn, args, "")
}

func (c *Client) doWrite(ctx context.Context, method, path string, data map[string]any, prefer string) ([]byte, error) {
	if err := c.bh.Acquire(ctx); err != nil {
		return nil, err
	}
	defer c.bh.Release()

	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	var reader io.Reader
	if data != nil {
		jsonBody, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, prefer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: write failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: write non-2xx",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		if err := mapSQLError(string(body)); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("supabase %s %s returned %d: %s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

// mapSQLError translates errors raised inside our SQL functions back
// into domain errors. The functions RAISE with well-known markers.
func mapSQLError(body string) error {
	switch {
	case strings.Contains(body, "insufficient_funds"):
		return &domain.ErrInsufficientFunds{}
	case strings.Contains(body, "duplicate key value") || strings.Contains(body, "already_paid"):
		return &domain.ErrDuplicate{Key: "expense payment"}
	case strings.Contains(body, "state_conflict"):
		return &domain.ErrConflict{Message: "resource is not in a state that allows this operation"}
	case strings.Contains(body, "not_found"):
		return &domain.ErrNotFound{Resource: "resource", ID: ""}
	}
	return nil
}

// withResilience wraps a read in the circuit breaker and retry policy.
func (c *Client) withResilience(ctx context.Context, fn func() error) error {
	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &domain.ErrCircuitOpen{Service: "supabase"}
	}
	return err
}

// wrapExternal keeps typed domain errors intact and wraps everything
// else as a counted external-service failure.
func (c *Client) wrapExternal(service string, err error) error {
	switch err.(type) {
	case *domain.ErrNotFound, *domain.ErrNotConfigured, *domain.ErrValidation,
		*domain.ErrInsufficientFunds, *domain.ErrDuplicate, *domain.ErrConflict,
		*domain.ErrCircuitOpen:
		return err
	}
	c.metrics.IncrExternalError("supabase")
	return &domain.ErrExternalService{Service: service, Err: err}
}
