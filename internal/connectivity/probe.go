package connectivity

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Prober reports whether the review service is currently reachable.
type Prober interface {
	Probe(ctx context.Context) bool
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context) bool

// Probe implements Prober.
func (f ProberFunc) Probe(ctx context.Context) bool {
	return f(ctx)
}

// HTTPProber issues GET {BaseURL}/health. Any HTTP response counts as
// reachable; only transport failures mean offline.
type HTTPProber struct {
	BaseURL string
	Client  *http.Client
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(p.BaseURL, "/")+"/health", http.NoBody)
	if err != nil {
		return false
	}

	hc := p.Client
	if hc == nil {
		hc = http.DefaultClient
	}

	resp, err := hc.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}

// DialProber opens and closes a TCP connection to Addr.
type DialProber struct {
	Addr string
}

// Probe implements Prober.
func (p *DialProber) Probe(ctx context.Context) bool {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.Addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// NewProber builds the prober named by kind ("http" or "dial") for the
// service at baseURL.
func NewProber(kind, baseURL string, timeout time.Duration) (Prober, error) {
	switch kind {
	case "", "http":
		return &HTTPProber{BaseURL: baseURL, Client: &http.Client{Timeout: timeout}}, nil
	case "dial":
		addr, err := hostPort(baseURL)
		if err != nil {
			return nil, err
		}
		return &DialProber{Addr: addr}, nil
	default:
		return nil, fmt.Errorf("unknown probe kind %q", kind)
	}
}

func hostPort(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base url %q has no host", baseURL)
	}
	if u.Port() != "" {
		return u.Host, nil
	}
	port := "80"
	if u.Scheme == "https" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port), nil
}
