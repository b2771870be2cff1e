package upload

import (
	"errors"
	"testing"

	"github.com/docker/go-units"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryFor(t *testing.T) {
	tests := map[string]Category{
		"video/mp4":                CategoryVideo,
		"video/quicktime":          CategoryVideo,
		"image/gif":                CategoryGIF,
		"image/png":                CategoryImage,
		"image/jpeg":               CategoryImage,
		"application/octet-stream": CategoryImage,
		"":                         CategoryImage,
	}
	for mimeType, want := range tests {
		assert.Equal(t, want, CategoryFor(mimeType), mimeType)
	}
}

func TestParseCategory(t *testing.T) {
	for input, want := range map[string]Category{
		"":             CategoryAuto,
		"auto":         CategoryAuto,
		"tweet_image":  CategoryImage,
		"tweet_gif":    CategoryGIF,
		" tweet_video": CategoryVideo,
	} {
		got, err := ParseCategory(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}

	_, err := ParseCategory("dm_video")
	assert.Error(t, err)
}

func TestCategory_Resolve(t *testing.T) {
	assert.Equal(t, CategoryVideo, CategoryAuto.Resolve("video/mp4"))
	assert.Equal(t, CategoryGIF, Category("").Resolve("image/gif"))
	assert.Equal(t, CategoryImage, CategoryImage.Resolve("video/mp4"))
}

func TestCategory_CheckSize(t *testing.T) {
	tests := []struct {
		category Category
		size     int64
		wantErr  bool
	}{
		{CategoryImage, 5 * units.MiB, false},
		{CategoryImage, 5*units.MiB + 1, true},
		{CategoryGIF, 15 * units.MiB, false},
		{CategoryGIF, 15*units.MiB + 1, true},
		{CategoryVideo, 512 * units.MiB, false},
		{CategoryVideo, 600 * 1000 * 1000, true},
		{Category("unknown"), 6 * units.MiB, true},
	}
	for _, tt := range tests {
		err := tt.category.CheckSize(tt.size)
		if !tt.wantErr {
			assert.NoError(t, err)
			continue
		}

		var tooLarge *PayloadTooLargeError
		require.True(t, errors.As(err, &tooLarge))
		assert.Equal(t, tt.size, tooLarge.Size)
		assert.Equal(t, tt.category.MaxSize(), tooLarge.Limit)
	}
}
