// Package resources canonicalizes, merges and deduplicates study resources.
package resources

import (
	"net/url"
	"path"
	"sort"
	"strings"
	"unicode"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
)

const MaxPerKind = 6

var trackingParams = map[string]bool{"fbclid": true, "gclid": true}

// CanonicalURL reduces raw to a comparison key. YouTube watch, short,
// embed and youtu.be forms collapse to https://youtube.com/watch?v=ID.
// Unparseable input is returned trimmed and lowercased.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.ToLower(raw)
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	if port := u.Port(); port != "" && !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
		host += ":" + port
	}

	if id := youtubeID(host, u); id != "" {
		return "https://youtube.com/watch?v=" + id
	}

	q := u.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || trackingParams[lk] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var qs []string
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			qs = append(qs, url.QueryEscape(k)+"="+url.QueryEscape(v))
		}
	}

	p := strings.TrimRight(u.EscapedPath(), "/")
	out := scheme + "://" + host + p
	if len(qs) > 0 {
		out += "?" + strings.Join(qs, "&")
	}
	return out
}

func youtubeID(host string, u *url.URL) string {
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
	default:
		return ""
	}
	if v := u.Query().Get("v"); v != "" && strings.TrimRight(u.Path, "/") == "/watch" {
		return v
	}
	dir, id := path.Split(strings.TrimRight(u.Path, "/"))
	switch dir {
	case "/embed/", "/shorts/", "/v/", "/live/":
		return id
	}
	return ""
}

// NormalizeTitle lowercases, strips punctuation and collapses whitespace.
func NormalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Dedupe drops entries without a title or an http(s) URL, then drops any
// entry whose canonical URL or normalized title was already seen. Order is
// preserved.
func Dedupe(list []curriculum.Resource) []curriculum.Resource {
	out := make([]curriculum.Resource, 0, len(list))
	seenURL := map[string]bool{}
	seenTitle := map[string]bool{}
	for _, r := range list {
		r.Title = strings.TrimSpace(r.Title)
		r.URL = strings.TrimSpace(r.URL)
		if r.Title == "" || !isHTTP(r.URL) {
			continue
		}
		cu := CanonicalURL(r.URL)
		nt := NormalizeTitle(r.Title)
		if seenURL[cu] || (nt != "" && seenTitle[nt]) {
			continue
		}
		seenURL[cu] = true
		if nt != "" {
			seenTitle[nt] = true
		}
		out = append(out, r)
	}
	return out
}

func isHTTP(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}

// CapPerKind keeps at most max entries of each kind, preserving order.
func CapPerKind(list []curriculum.Resource, max int) []curriculum.Resource {
	if max <= 0 {
		max = MaxPerKind
	}
	counts := map[curriculum.ResourceKind]int{}
	out := make([]curriculum.Resource, 0, len(list))
	for _, r := range list {
		if counts[r.Kind] >= max {
			continue
		}
		counts[r.Kind]++
		out = append(out, r)
	}
	return out
}
