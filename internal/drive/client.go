// Package drive owns all HTTP against the remote drive service: endpoint
// construction, the shared cookie jar, and per-endpoint instrumentation.
package drive

import (
	"context"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TRIBUI106/czGDriveDownloader/internal/metrics"
)

const defaultBaseURL = "https://drive.google.com"

type Client struct {
	baseURL *url.URL
	ua      string
	http    *http.Client
}

// NewClientFromEnv builds a client from the environment.
//
// Recognized vars (with defaults):
//
//	GDRIVE_BASE_URL        (https://drive.google.com)
//	GDRIVE_HTTP_TIMEOUT_MS (15000, response-header timeout)
//	GDRIVE_USER_AGENT      (Mozilla/5.0 (compatible; czgdrive/1.0))
//
// The client carries a cookie jar: the large-file confirmation token is
// cookie-carried and must survive between the export request and its retry.
// There is deliberately no overall http.Client timeout since it would cap
// long body streams; the transport bounds dial, TLS and header waits.
func NewClientFromEnv() (*Client, error) {
	ms := 15000
	if v := os.Getenv("GDRIVE_HTTP_TIMEOUT_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			ms = parsed
		}
	}

	ua := os.Getenv("GDRIVE_USER_AGENT")
	if ua == "" {
		ua = "Mozilla/5.0 (compatible; czgdrive/1.0)"
	}

	rawURL := os.Getenv("GDRIVE_BASE_URL")
	if rawURL == "" {
		rawURL = defaultBaseURL
	}

	baseURL, err := url.Parse(rawURL)
	if err != nil {
		baseURL, err = url.Parse(defaultBaseURL)
		if err != nil {
			return nil, err
		}
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: time.Duration(ms) * time.Millisecond,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}

	return &Client{
		baseURL: baseURL,
		ua:      ua,
		http:    &http.Client{Jar: jar, Transport: transport},
	}, nil
}

func (c *Client) BaseURL() *url.URL  { return c.baseURL }
func (c *Client) HTTP() *http.Client { return c.http }
func (c *Client) UserAgent() string  { return c.ua }

// ExportURL is the canonical direct-download endpoint for a file ID.
func (c *Client) ExportURL(id string) string {
	u := *c.baseURL
	u.Path = "/uc"
	q := url.Values{}
	q.Set("export", "download")
	q.Set("id", id)
	u.RawQuery = q.Encode()
	return u.String()
}

// ConfirmURL appends the confirmation token to an export URL.
func (c *Client) ConfirmURL(exportURL, token string) string {
	u, err := url.Parse(exportURL)
	if err != nil {
		return exportURL + "&confirm=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("confirm", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// FolderURL is the folder-view page for a folder ID.
func (c *Client) FolderURL(id string) string {
	u := *c.baseURL
	u.Path = "/drive/folders/" + id
	return u.String()
}

// FileViewURL is the human file-info page for a file ID.
func (c *Client) FileViewURL(id string) string {
	u := *c.baseURL
	u.Path = "/file/d/" + id + "/view"
	return u.String()
}

// Get issues an instrumented GET. The endpoint label buckets metrics by
// call site (export, confirm, fileinfo, folder, probe, ping). Redirects are
// followed; callers that care inspect resp.Request.URL.
func (c *Client) Get(ctx context.Context, endpoint, rawURL string) (*http.Response, error) {
	timer := prometheus.NewTimer(metrics.DriveHTTPLatency.WithLabelValues(endpoint))
	defer timer.ObserveDuration()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		metrics.DriveHTTPErrors.WithLabelValues(endpoint).Inc()
		return nil, err
	}
	req.Header.Set("User-Agent", c.ua)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.DriveHTTPErrors.WithLabelValues(endpoint).Inc()
		return nil, err
	}
	return resp, nil
}

// Ping checks reachability of the drive service. Any HTTP response counts;
// only transport failures report unready.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	resp, err := c.Get(ctx, "ping", c.baseURL.String())
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
