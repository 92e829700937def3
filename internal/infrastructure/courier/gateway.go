package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/velora/backend/internal/domain/courier"
	"github.com/velora/backend/internal/infrastructure/telemetry"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
	// maxRawBodyInError caps how much of a provider response is kept on errors
	maxRawBodyInError = 4 * 1024
)

// Gateway performs HTTP calls against courier APIs. Every response is
// inspected twice: once for the HTTP status and once for error details
// embedded in the body, because several providers report failures inside
// a 200 response.
type Gateway struct {
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *telemetry.Metrics

	// authHints maps a courier to extra guidance appended to 401 errors
	authHints map[courier.CourierCode]string
}

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithAuthHint appends guidance to authentication failures for one courier
func WithAuthHint(code courier.CourierCode, hint string) GatewayOption {
	return func(g *Gateway) {
		g.authHints[code] = hint
	}
}

// WithMetrics records request counts and latencies for courier calls
func WithMetrics(m *telemetry.Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// NewGateway creates a courier HTTP gateway
func NewGateway(timeout time.Duration, logger *zap.Logger, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		authHints:  make(map[courier.CourierCode]string),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Request describes one courier API call
type Request struct {
	Courier   courier.CourierCode
	Operation string
	Method    string
	URL       string
	Headers   map[string]string
	Body      any
}

// Do executes the request and returns the raw response body. A non-2xx
// status or an error payload embedded in a 2xx body both produce a
// courier.APIError. Failed requests are never retried here; couriers
// do not guarantee booking idempotency.
func (g *Gateway) Do(ctx context.Context, req *Request) ([]byte, error) {
	var reader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to marshal request: %w", req.Courier, err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", req.Courier, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		g.record(req, "transport_error", start)
		return nil, courier.NewAPIError(req.Courier, 0, fmt.Sprintf("request failed: %v", err), "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		g.record(req, "read_error", start)
		return nil, courier.NewAPIError(req.Courier, resp.StatusCode, fmt.Sprintf("failed to read response: %v", err), "")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.record(req, strconv.Itoa(resp.StatusCode), start)
		return nil, g.buildAPIError(req.Courier, resp.StatusCode, body)
	}

	// Some providers return 200 with an error payload
	if msg, found := embeddedError(body); found {
		g.logger.Warn("courier returned error inside successful response",
			zap.String("courier", string(req.Courier)),
			zap.String("operation", req.Operation),
			zap.String("message", msg))
		g.record(req, "embedded_error", start)
		return nil, courier.NewAPIError(req.Courier, resp.StatusCode, msg, truncate(body))
	}

	g.record(req, "ok", start)
	return body, nil
}

func (g *Gateway) record(req *Request, status string, start time.Time) {
	if g.metrics == nil {
		return
	}
	g.metrics.RecordCourierRequest(string(req.Courier), req.Operation, status, time.Since(start).Seconds())
	if status != "ok" {
		g.metrics.RecordCourierError(string(req.Courier), status)
	}
}

// buildAPIError extracts the most useful message out of an error response
func (g *Gateway) buildAPIError(code courier.CourierCode, status int, body []byte) *courier.APIError {
	msg := extractMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status == http.StatusUnauthorized {
		if hint, ok := g.authHints[code]; ok {
			msg = msg + ". " + hint
		}
	}
	return courier.NewAPIError(code, status, msg, truncate(body))
}

// embeddedError reports whether a 2xx body carries an error payload.
// Providers signal this with non-empty "error" or "errors" fields.
func embeddedError(body []byte) (string, bool) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false
	}
	for _, key := range []string{"error", "errors"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		trimmed := string(bytes.TrimSpace(raw))
		if trimmed == "" || trimmed == "null" || trimmed == `""` || trimmed == "[]" || trimmed == "{}" || trimmed == "false" {
			continue
		}
		msg := extractMessage(body)
		if msg == "" {
			msg = flatten(raw)
		}
		return msg, true
	}
	return "", false
}

// extractMessage digs a human readable message out of a provider payload,
// trying "message", then "error", then "errors"
func extractMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if raw, ok := payload["message"]; ok {
		if s := asString(raw); s != "" {
			return s
		}
	}
	if raw, ok := payload["error"]; ok {
		if s := flatten(raw); s != "" {
			return s
		}
	}
	if raw, ok := payload["errors"]; ok {
		if s := flatten(raw); s != "" {
			return s
		}
	}
	return ""
}

func asString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// flatten renders nested error values (strings, arrays, field maps) as text
func flatten(raw json.RawMessage) string {
	if s := asString(raw); s != "" {
		return s
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if s := flatten(item); s != "" {
				return s
			}
		}
		return ""
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err == nil {
		for field, item := range m {
			if s := flatten(item); s != "" {
				return fmt.Sprintf("%s: %s", field, s)
			}
		}
	}
	return ""
}

func truncate(body []byte) string {
	if len(body) > maxRawBodyInError {
		return string(body[:maxRawBodyInError])
	}
	return string(body)
}
