package youtube

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

var ErrMissingAPIKey = errors.New("missing YOUTUBE_API_KEY")

type Video struct {
	ID              string
	Title           string
	Description     string
	Channel         string
	ThumbnailURL    string
	DurationMinutes int
}

func (v Video) URL() string { return "https://www.youtube.com/watch?v=" + v.ID }

type Client interface {
	Search(ctx context.Context, query string, maxResults int64) ([]Video, error)
}

type client struct {
	log        *logger.Logger
	svc        *yt.Service
	maxResults int64
}

func NewClient(ctx context.Context, log *logger.Logger, cfg config.YouTubeConfig) (Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	svc, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	return newWithService(log, svc, cfg.MaxResults), nil
}

func newWithService(log *logger.Logger, svc *yt.Service, maxResults int64) *client {
	if maxResults <= 0 {
		maxResults = 8
	}
	return &client{log: log.With("client", "YouTubeClient"), svc: svc, maxResults: maxResults}
}

// Search returns embeddable videos for query, enriched with durations.
func (c *client) Search(ctx context.Context, query string, maxResults int64) ([]Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = c.maxResults
	}
	resp, err := c.svc.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoEmbeddable("true").
		SafeSearch("moderate").
		RelevanceLanguage("en").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	var out []Video
	var ids []string
	for _, item := range resp.Items {
		if item == nil || item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		out = append(out, Video{
			ID:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Channel:      item.Snippet.ChannelTitle,
			ThumbnailURL: thumbnail(item.Snippet.Thumbnails),
		})
		ids = append(ids, item.Id.VideoId)
	}
	if len(ids) == 0 {
		return out, nil
	}

	details, err := c.svc.Videos.List([]string{"contentDetails"}).Id(ids...).Context(ctx).Do()
	if err != nil {
		// Durations are decoration; keep the search hits.
		c.log.Warn("youtube video details failed", "error", err)
		return out, nil
	}
	durations := map[string]int{}
	for _, v := range details.Items {
		if v != nil && v.ContentDetails != nil {
			durations[v.Id] = ParseDurationMinutes(v.ContentDetails.Duration)
		}
	}
	for i := range out {
		out[i].DurationMinutes = durations[out[i].ID]
	}
	return out, nil
}

func thumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// ParseDurationMinutes converts an ISO-8601 duration (PT1H2M30S) to whole
// minutes, rounding seconds up. Unparseable input yields 0.
func ParseDurationMinutes(raw string) int {
	m := isoDuration.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0
	}
	n := func(s string) int {
		v, _ := strconv.Atoi(s)
		return v
	}
	secs := n(m[1])*86400 + n(m[2])*3600 + n(m[3])*60 + n(m[4])
	return (secs + 59) / 60
}
