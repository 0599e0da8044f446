package resources

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
)

// ParseCurated reads the readings and MOOCs a model returned. An object
// with "readings"/"moocs" arrays or a flat array of items carrying a
// "kind" field are both accepted.
func ParseCurated(raw string) ([]curriculum.Resource, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("resources: invalid json")
	}
	doc := gjson.Parse(raw)
	var out []curriculum.Resource
	if doc.IsArray() {
		for _, item := range doc.Array() {
			kind, ok := curriculum.ParseResourceKind(item.Get("kind").String())
			if !ok {
				kind = curriculum.ResourceReading
			}
			out = append(out, toResource(kind, item))
		}
		return out, nil
	}
	if !doc.IsObject() {
		return nil, fmt.Errorf("resources: expected object or array")
	}
	sections := []struct {
		key  string
		kind curriculum.ResourceKind
	}{
		{"readings", curriculum.ResourceReading},
		{"articles", curriculum.ResourceReading},
		{"moocs", curriculum.ResourceMOOC},
		{"courses", curriculum.ResourceMOOC},
	}
	for _, sec := range sections {
		for _, item := range doc.Get(sec.key).Array() {
			out = append(out, toResource(sec.kind, item))
		}
	}
	return out, nil
}

func toResource(kind curriculum.ResourceKind, item gjson.Result) curriculum.Resource {
	return curriculum.Resource{
		Kind:        kind,
		Title:       strings.TrimSpace(item.Get("title").String()),
		URL:         strings.TrimSpace(item.Get("url").String()),
		Source:      strings.TrimSpace(item.Get("source").String()),
		Description: strings.TrimSpace(item.Get("description").String()),
	}
}

// CitationReadings turns provider citation URLs into reading entries
// titled by host and path.
func CitationReadings(citations []string) []curriculum.Resource {
	var out []curriculum.Resource
	for _, c := range citations {
		u, err := url.Parse(strings.TrimSpace(c))
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		title := host
		if p := strings.Trim(u.Path, "/"); p != "" {
			title = host + "/" + p
		}
		out = append(out, curriculum.Resource{
			Kind:   curriculum.ResourceReading,
			Title:  title,
			URL:    u.String(),
			Source: host,
		})
	}
	return out
}
