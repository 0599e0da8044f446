package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/hermes-backend/internal/domain/curriculum"
)

func TestCanonicalURL(t *testing.T) {
	cases := map[string]string{
		"HTTPS://WWW.Example.com/Guide/?utm_source=x&b=2&a=1#intro": "https://example.com/Guide?a=1&b=2",
		"http://m.example.com/":                                      "http://example.com",
		"https://example.com/a?fbclid=1&gclid=2":                     "https://example.com/a",
		"https://example.com:443/a":                                  "https://example.com/a",
		"https://example.com:8443/a":                                 "https://example.com:8443/a",
		"https://www.youtube.com/watch?v=abc123&t=42s":               "https://youtube.com/watch?v=abc123",
		"https://youtu.be/abc123?si=share":                           "https://youtube.com/watch?v=abc123",
		"https://www.youtube.com/embed/abc123":                       "https://youtube.com/watch?v=abc123",
		"https://youtube.com/shorts/abc123/":                         "https://youtube.com/watch?v=abc123",
		"https://m.youtube.com/watch?v=abc123":                       "https://youtube.com/watch?v=abc123",
		"https://www.youtube.com/@channel":                           "https://youtube.com/@channel",
		"not a url":                                                  "not a url",
	}
	for in, want := range cases {
		assert.Equal(t, want, CanonicalURL(in), in)
	}
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "intro to go concurrency", NormalizeTitle("  Intro to Go: Concurrency!! "))
	assert.Equal(t, "c programming", NormalizeTitle("C++ Programming"))
}

func TestDedupe(t *testing.T) {
	in := []curriculum.Resource{
		{Kind: curriculum.ResourceVideo, Title: "Channels Explained", URL: "https://www.youtube.com/watch?v=abc"},
		{Kind: curriculum.ResourceVideo, Title: "Different title", URL: "https://youtu.be/abc"},
		{Kind: curriculum.ResourceReading, Title: "channels, explained", URL: "https://go.dev/blog/pipelines"},
		{Kind: curriculum.ResourceReading, Title: "", URL: "https://go.dev/doc"},
		{Kind: curriculum.ResourceReading, Title: "FTP mirror", URL: "ftp://example.com/file"},
		{Kind: curriculum.ResourceReading, Title: "Relative", URL: "/docs/page"},
		{Kind: curriculum.ResourceReading, Title: "Effective Go", URL: "https://go.dev/doc/effective_go"},
		{Kind: curriculum.ResourceMOOC, Title: "Go Course", URL: "https://www.go.dev/doc/effective_go/?utm_campaign=x"},
	}
	out := Dedupe(in)
	require.Len(t, out, 2)
	assert.Equal(t, "Channels Explained", out[0].Title)
	assert.Equal(t, "Effective Go", out[1].Title)
}

func TestCapPerKind(t *testing.T) {
	var in []curriculum.Resource
	for i := 0; i < 8; i++ {
		in = append(in, curriculum.Resource{Kind: curriculum.ResourceVideo})
	}
	in = append(in, curriculum.Resource{Kind: curriculum.ResourceMOOC})
	out := CapPerKind(in, 0)
	assert.Len(t, out, MaxPerKind+1)
	assert.Equal(t, curriculum.ResourceMOOC, out[len(out)-1].Kind)
}

func TestParseCurated(t *testing.T) {
	out, err := ParseCurated(`{
		"readings": [{"title": "Effective Go", "url": "https://go.dev/doc/effective_go", "source": "go.dev"}],
		"moocs": [{"title": "Programming with Google Go", "url": "https://www.coursera.org/specializations/google-golang"}],
		"courses": [{"title": "Extra", "url": "https://example.com"}]
	}`)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, curriculum.ResourceReading, out[0].Kind)
	assert.Equal(t, "go.dev", out[0].Source)
	assert.Equal(t, curriculum.ResourceMOOC, out[1].Kind)
	assert.Equal(t, curriculum.ResourceMOOC, out[2].Kind)

	out, err = ParseCurated(`[{"kind": "course", "title": "x", "url": "https://a.b"}, {"title": "y", "url": "https://c.d"}]`)
	require.NoError(t, err)
	assert.Equal(t, curriculum.ResourceMOOC, out[0].Kind)
	assert.Equal(t, curriculum.ResourceReading, out[1].Kind)

	_, err = ParseCurated(`42`)
	assert.Error(t, err)
}

func TestCitationReadings(t *testing.T) {
	out := CitationReadings([]string{"https://www.britannica.com/science/physics/", "::bad", ""})
	require.Len(t, out, 1)
	assert.Equal(t, "britannica.com/science/physics", out[0].Title)
	assert.Equal(t, curriculum.ResourceReading, out[0].Kind)
	assert.Equal(t, "britannica.com", out[0].Source)
}
