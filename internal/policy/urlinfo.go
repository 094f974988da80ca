package policy

import (
	"net/url"
	"path"
	"strings"

	"github.com/policylab/policyscrape/internal/hash/sha256"
)

// archiveKeyHashLen is the number of hex characters of the URL digest kept in
// the archive key. Long enough to avoid collisions between URLs sharing a
// domain, short enough for readable directory names.
const archiveKeyHashLen = 10

// UrlInfo is the immutable classification of one policy URL.
type UrlInfo struct {
	URL         string `json:"url"`
	Scheme      string `json:"scheme"`
	Domain      string `json:"domain"`
	Path        string `json:"path"`
	Params      string `json:"params"`
	Query       string `json:"query"`
	Fragment    string `json:"fragment"`
	ContentType string `json:"content_type"`
}

// Classify parses a URL into its components. It never fails: malformed URLs
// yield empty fields and the default "html" content type. Scheme and domain
// are lowercased; path and query keep their case.
func Classify(rawURL string) UrlInfo {
	info := UrlInfo{URL: rawURL, ContentType: "html"}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return info
	}
	info.Scheme = strings.ToLower(parsed.Scheme)
	info.Domain = strings.ToLower(parsed.Host)
	info.Path, info.Params = splitPathParams(parsed.Path)
	info.Query = parsed.RawQuery
	info.Fragment = parsed.Fragment
	info.ContentType = contentTypeForPath(info.Path)
	return info
}

// ArchiveKey derives the stable per-URL directory name:
// <domain-slug>_<short hex digest of the full URL>.
func (u UrlInfo) ArchiveKey() string {
	return slugifyDomain(u.Domain) + "_" + sha256.Short([]byte(u.URL), archiveKeyHashLen)
}

func contentTypeForPath(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return "pdf"
	case ".txt":
		return "plain"
	default:
		return "html"
	}
}

// splitPathParams separates the rarely-used semicolon parameters of the last
// path segment from the path proper.
func splitPathParams(p string) (string, string) {
	slash := strings.LastIndex(p, "/")
	if semi := strings.Index(p[slash+1:], ";"); semi >= 0 {
		cut := slash + 1 + semi
		return p[:cut], p[cut+1:]
	}
	return p, ""
}

func slugifyDomain(domain string) string {
	slug := strings.TrimSpace(domain)
	slug = strings.Trim(slug, "./")
	slug = strings.NewReplacer(".", "_", ":", "_").Replace(slug)
	if slug == "" {
		slug = "unknown"
	}
	return slug
}
