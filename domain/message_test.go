package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategoryFromMIME(t *testing.T) {
	req := require.New(t)

	cases := map[string]AttachmentCategory{
		"image/png":                 CategoryImage,
		"image/jpeg":                CategoryImage,
		"audio/mpeg":                CategoryAudio,
		"video/mp4":                 CategoryVideo,
		"application/pdf":           CategoryDocument,
		"text/plain; charset=utf-8": CategoryDocument,
		"application/octet-stream":  CategoryOther,
		"":                          CategoryOther,
	}
	for mime, want := range cases {
		req.Equal(want, CategoryFromMIME(mime), "mime=%q", mime)
	}
}
