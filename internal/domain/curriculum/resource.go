package curriculum

import "strings"

type ResourceKind string

const (
	ResourceVideo   ResourceKind = "video"
	ResourceReading ResourceKind = "reading"
	ResourceMOOC    ResourceKind = "mooc"
)

func ParseResourceKind(raw string) (ResourceKind, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "video", "videos", "youtube":
		return ResourceVideo, true
	case "reading", "readings", "article", "book", "paper", "documentation", "docs":
		return ResourceReading, true
	case "mooc", "moocs", "course":
		return ResourceMOOC, true
	default:
		return "", false
	}
}

type Resource struct {
	Kind            ResourceKind `json:"kind"`
	Title           string       `json:"title"`
	URL             string       `json:"url"`
	Source          string       `json:"source,omitempty"`
	Description     string       `json:"description,omitempty"`
	ThumbnailURL    string       `json:"thumbnail_url,omitempty"`
	DurationMinutes int          `json:"duration_minutes,omitempty"`
}

type ResourceSet struct {
	Topic     string     `json:"topic"`
	StepTitle string     `json:"step_title"`
	Resources []Resource `json:"resources"`
}

func (s ResourceSet) ByKind(kind ResourceKind) []Resource {
	var out []Resource
	for _, r := range s.Resources {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

type Notes struct {
	Topic     string `json:"topic"`
	StepTitle string `json:"step_title"`
	Markdown  string `json:"markdown"`
	HTML      string `json:"html"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
}
