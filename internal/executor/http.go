package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flowdag/flowdag/internal/domain"
)

type httpConfig struct {
	Method       string            `json:"method"`
	URL          string            `json:"url"`
	Headers      map[string]string `json:"headers"`
	Body         any               `json:"body"`
	TimeoutMS    int               `json:"timeout_ms"`
	IgnoreStatus bool              `json:"ignore_status"`
}

type httpHandler struct {
	client *http.Client
}

func newHTTPHandler(client *http.Client) Handler {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpHandler{client: client}
}

func (h *httpHandler) Handle(ctx context.Context, node domain.NodeDescriptor, params map[string]any, rt *Runtime) (any, error) {
	cfg, err := parseConfig[httpConfig](params)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "invalid http config", err)
	}
	if cfg.URL == "" {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "http node requires url", nil)
	}
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}

	var bodyReader io.Reader
	if cfg.Body != nil {
		b, err := json.Marshal(cfg.Body)
		if err != nil {
			return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to marshal http body", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if cfg.TimeoutMS > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, method, cfg.URL, bodyReader)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to build http request", err)
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		if reqCtx.Err() != nil {
			return nil, domain.NewNodeError(domain.ErrTimeout, node.ID, "http request timed out", reqCtx.Err())
		}
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "http request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNodeError(domain.ErrHandler, node.ID, "failed to read http response body", err)
	}

	var parsedBody any = string(respBody)
	var decoded any
	isJSON := strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "json")
	if isJSON && json.Unmarshal(respBody, &decoded) == nil {
		parsedBody = decoded
	}

	out := map[string]any{
		"status":  resp.StatusCode,
		"headers": flattenHeaders(resp.Header),
		"body":    parsedBody,
	}

	// §9 resolved question 3: non-2xx is a handler failure unless the
	// node opted out via ignore_status. This is a deliberate departure
	// from the teacher's own HTTPRequestExecutor, which never fails on
	// status.
	if !cfg.IgnoreStatus && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return out, domain.NewNodeError(domain.ErrHandler, node.ID,
			"http response status outside 2xx range", nil)
	}

	return out, nil
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
