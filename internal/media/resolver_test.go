package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodePathEscapesEachSegment(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"album/img 1.jpg", "album/img%201.jpg"},
		{"/leading//double/a.jpg", "leading/double/a.jpg"},
		{"50%/off?.png", "50%25/off%3F.png"},
		{"vacances/été #2.jpg", "vacances/%C3%A9t%C3%A9%20%232.jpg"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, EncodePath(tt.in), tt.in)
	}
}

func TestResolverMediaAndThumbnail(t *testing.T) {
	r := NewResolver("http://photos.local:8000/")

	require.Equal(t, "http://photos.local:8000/media/2024/beach%20day.jpg", r.Media("2024/beach day.jpg"))
	require.Equal(t, "http://photos.local:8000/thumbnails/small/2024/a.jpg", r.Thumbnail("2024/a.jpg", Small))
	require.Equal(t, "http://photos.local:8000/thumbnails/medium/2024/a.jpg", r.Thumbnail("2024/a.jpg", "huge"))
}

func TestResolverPassesAbsoluteURLsThrough(t *testing.T) {
	r := NewResolver("http://photos.local:8000")
	abs := "https://cdn.example.com/x.jpg"

	require.Equal(t, abs, r.Media(abs))
	require.Equal(t, abs, r.Thumbnail(abs, Large))
	require.Equal(t, abs, r.Absolute(abs))
	require.Equal(t, "http://photos.local:8000/media/x.jpg", r.Absolute("/media/x.jpg"))
	require.Equal(t, "", r.Absolute(""))
}

func TestParseSize(t *testing.T) {
	require.Equal(t, Small, ParseSize("SMALL"))
	require.Equal(t, Large, ParseSize(" large "))
	require.Equal(t, Medium, ParseSize(""))
	require.Equal(t, Medium, ParseSize("xl"))
}

func TestSizeFor(t *testing.T) {
	require.Equal(t, Small, SizeFor(120))
	require.Equal(t, Small, SizeFor(300))
	require.Equal(t, Medium, SizeFor(301))
	require.Equal(t, Large, SizeFor(1600))
	require.Equal(t, Large, SizeFor(4000))
	require.Equal(t, 800, Medium.Pixels())
}
