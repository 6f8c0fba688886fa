package links_test

import (
	"aicaster/links"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected links.Kind
	}{
		{
			name:     "jpeg",
			url:      "https://example.com/cat.JPEG",
			expected: links.KindImage,
		},
		{
			name:     "webp",
			url:      "https://example.com/a/b.webp",
			expected: links.KindImage,
		},
		{
			name:     "cloudflare images",
			url:      "https://imagedelivery.net/abc/def/public",
			expected: links.KindImage,
		},
		{
			name:     "original path",
			url:      "https://i.imgur.com/abc/original",
			expected: links.KindImage,
		},
		{
			name:     "twitter",
			url:      "https://twitter.com/user/status/123",
			expected: links.KindSocialPost,
		},
		{
			name:     "x",
			url:      "https://x.com/user/status/123",
			expected: links.KindSocialPost,
		},
		{
			name:     "mobile twitter",
			url:      "https://mobile.twitter.com/user/status/123",
			expected: links.KindSocialPost,
		},
		{
			name:     "tweet with image suffix stays social",
			url:      "https://x.com/user/status/123/photo.png",
			expected: links.KindSocialPost,
		},
		{
			name:     "host merely ending in x.com",
			url:      "https://dropbox.com/s/file",
			expected: links.KindGeneric,
		},
		{
			name:     "article",
			url:      "https://example.com/post",
			expected: links.KindGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, links.Classify(tt.url))
		})
	}
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "https://twitter.com/user/status/1", links.Canonical("https://x.com/user/status/1"))
	assert.Equal(t, "https://mobile.twitter.com/u?s=20", links.Canonical("https://mobile.x.com/u?s=20"))
	assert.Equal(t, "https://dropbox.com/s/file", links.Canonical("https://dropbox.com/s/file"))
	assert.Equal(t, "https://example.com/x.com", links.Canonical("https://example.com/x.com"))
}

func TestTweetID(t *testing.T) {
	assert.Equal(t, "1234", links.TweetID("https://twitter.com/u/status/1234?s=20"))
	assert.Equal(t, "1234", links.TweetID("https://x.com/u/status/1234/"))
	assert.Equal(t, "", links.TweetID("https://x.com/u"))
}
