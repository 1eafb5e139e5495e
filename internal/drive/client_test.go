package drive

import (
	"net/url"
	"os"
	"testing"
)

func TestNewClientFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		ua      string
		wantURL string
		wantUA  string
	}{
		{
			name:    "defaults",
			wantURL: "https://drive.google.com",
			wantUA:  "Mozilla/5.0 (compatible; czgdrive/1.0)",
		},
		{
			name:    "valid env values",
			baseURL: "http://127.0.0.1:9999",
			ua:      "test-agent",
			wantURL: "http://127.0.0.1:9999",
			wantUA:  "test-agent",
		},
		{
			name:    "invalid url fallback",
			baseURL: "::bad::url",
			wantURL: "https://drive.google.com",
			wantUA:  "Mozilla/5.0 (compatible; czgdrive/1.0)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range []string{"GDRIVE_BASE_URL", "GDRIVE_USER_AGENT", "GDRIVE_HTTP_TIMEOUT_MS"} {
				if err := os.Unsetenv(k); err != nil {
					t.Fatalf("unset %s: %v", k, err)
				}
			}

			t.Setenv("GDRIVE_BASE_URL", tc.baseURL)
			t.Setenv("GDRIVE_USER_AGENT", tc.ua)

			c, err := NewClientFromEnv()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := c.baseURL.String(); got != tc.wantURL {
				t.Fatalf("url: got %q want %q", got, tc.wantURL)
			}
			if c.ua != tc.wantUA {
				t.Fatalf("ua: got %q want %q", c.ua, tc.wantUA)
			}
			if c.http == nil {
				t.Fatalf("http client is nil")
			}
			if c.http.Jar == nil {
				t.Fatalf("cookie jar is nil")
			}
			if c.http.Timeout != 0 {
				t.Fatalf("overall timeout must stay unset, got %v", c.http.Timeout)
			}
		})
	}
}

func TestEndpointURLs(t *testing.T) {
	t.Setenv("GDRIVE_BASE_URL", "https://drive.google.com")
	c, err := NewClientFromEnv()
	if err != nil {
		t.Fatalf("NewClientFromEnv: %v", err)
	}

	if got := c.FolderURL("fold1"); got != "https://drive.google.com/drive/folders/fold1" {
		t.Fatalf("FolderURL = %q", got)
	}
	if got := c.FileViewURL("file1"); got != "https://drive.google.com/file/d/file1/view" {
		t.Fatalf("FileViewURL = %q", got)
	}

	exp := c.ExportURL("file1")
	u, err := url.Parse(exp)
	if err != nil {
		t.Fatalf("parse export url: %v", err)
	}
	if u.Path != "/uc" || u.Query().Get("export") != "download" || u.Query().Get("id") != "file1" {
		t.Fatalf("ExportURL = %q", exp)
	}

	conf, err := url.Parse(c.ConfirmURL(exp, "tok42"))
	if err != nil {
		t.Fatalf("parse confirm url: %v", err)
	}
	if conf.Query().Get("confirm") != "tok42" || conf.Query().Get("id") != "file1" {
		t.Fatalf("ConfirmURL = %q", conf.String())
	}
}
