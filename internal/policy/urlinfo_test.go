package policy

import (
	"strings"
	"testing"
)

func TestClassifyComponents(t *testing.T) {
	t.Parallel()

	info := Classify("HTTPS://Example.COM/legal/privacy;v=2?lang=en#top")
	if info.Scheme != "https" {
		t.Errorf("Scheme = %q, want %q", info.Scheme, "https")
	}
	if info.Domain != "example.com" {
		t.Errorf("Domain = %q, want %q", info.Domain, "example.com")
	}
	if info.Path != "/legal/privacy" {
		t.Errorf("Path = %q, want %q", info.Path, "/legal/privacy")
	}
	if info.Params != "v=2" {
		t.Errorf("Params = %q, want %q", info.Params, "v=2")
	}
	if info.Query != "lang=en" {
		t.Errorf("Query = %q, want %q", info.Query, "lang=en")
	}
	if info.Fragment != "top" {
		t.Errorf("Fragment = %q, want %q", info.Fragment, "top")
	}
	if info.ContentType != "html" {
		t.Errorf("ContentType = %q, want %q", info.ContentType, "html")
	}
}

func TestClassifyContentTypeByExtension(t *testing.T) {
	t.Parallel()

	cases := []struct {
		url  string
		want string
	}{
		{"https://example.com/privacy.pdf", "pdf"},
		{"https://example.com/privacy.PDF", "pdf"},
		{"https://example.com/privacy.txt", "plain"},
		{"https://example.com/privacy", "html"},
		{"https://example.com/privacy.html", "html"},
	}
	for _, tc := range cases {
		if got := Classify(tc.url).ContentType; got != tc.want {
			t.Errorf("Classify(%q).ContentType = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestClassifyMalformedURL(t *testing.T) {
	t.Parallel()

	raw := "http://bad url\x7f"
	info := Classify(raw)
	if info.URL != raw {
		t.Errorf("URL = %q, want original input", info.URL)
	}
	if info.Domain != "" || info.Scheme != "" {
		t.Errorf("malformed URL should classify with empty components, got %+v", info)
	}
	if info.ContentType != "html" {
		t.Errorf("ContentType = %q, want default %q", info.ContentType, "html")
	}
	if !strings.HasPrefix(info.ArchiveKey(), "unknown_") {
		t.Errorf("ArchiveKey() = %q, want unknown_ prefix", info.ArchiveKey())
	}
}

func TestArchiveKeyDeterministic(t *testing.T) {
	t.Parallel()

	a := Classify("https://example.com/privacy").ArchiveKey()
	b := Classify("https://example.com/privacy").ArchiveKey()
	if a != b {
		t.Fatalf("same URL produced different keys: %q vs %q", a, b)
	}

	other := Classify("https://example.com/terms").ArchiveKey()
	if a == other {
		t.Fatalf("different URLs on one domain collided: %q", a)
	}
}

func TestArchiveKeyFormat(t *testing.T) {
	t.Parallel()

	key := Classify("https://sub.example.co.uk:8443/privacy").ArchiveKey()
	parts := strings.Split(key, "_")
	if len(parts) < 2 {
		t.Fatalf("key %q missing digest suffix", key)
	}
	if got := parts[len(parts)-1]; len(got) != 10 {
		t.Errorf("digest length = %d, want 10 (key %q)", len(got), key)
	}
	if !strings.HasPrefix(key, "sub_example_co_uk_8443_") {
		t.Errorf("key = %q, want slug prefix %q", key, "sub_example_co_uk_8443_")
	}
}
