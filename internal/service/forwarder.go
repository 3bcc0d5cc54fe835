package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/pkg/metrics"
)

// ForwardResult reports one forward attempt. It is informational: a
// failed forward never flips an accept decision.
type ForwardResult struct {
	Forwarded bool
	Status    int
	Reason    string
}

type Forwarder interface {
	Forward(ctx context.Context, intent *model.Intent) ForwardResult
}

// HTTPForwarder relays accepted intents to the execution agent with a
// bounded timeout. At most one attempt per accepted evaluation; retries
// are the caller's business.
type HTTPForwarder struct {
	endpoint string
	client   *http.Client
}

func NewHTTPForwarder(endpoint string, timeout time.Duration) *HTTPForwarder {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPForwarder{
		endpoint: endpoint,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: timeout,
		},
	}
}

func (f *HTTPForwarder) Forward(ctx context.Context, intent *model.Intent) ForwardResult {
	if f.endpoint == "" {
		return ForwardResult{Forwarded: false, Reason: "endpoint_unset"}
	}

	body, err := json.Marshal(intent)
	if err != nil {
		metrics.ForwardFailures.Inc()
		return ForwardResult{Forwarded: false, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		metrics.ForwardFailures.Inc()
		return ForwardResult{Forwarded: false, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", intent.TenantID)

	resp, err := f.client.Do(req)
	if err != nil {
		metrics.ForwardFailures.Inc()
		return ForwardResult{Forwarded: false, Reason: "network_error"}
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok {
		metrics.ForwardFailures.Inc()
	}
	return ForwardResult{Forwarded: ok, Status: resp.StatusCode}
}
