package upload

import (
	"fmt"
	"strings"

	"github.com/docker/go-units"
)

// Category classifies media for the segmented upload flow.
type Category string

const (
	// CategoryAuto derives the category from the MIME type.
	CategoryAuto Category = "auto"
	// CategoryImage ...
	CategoryImage Category = "tweet_image"
	// CategoryGIF ...
	CategoryGIF Category = "tweet_gif"
	// CategoryVideo ...
	CategoryVideo Category = "tweet_video"
)

var maxSizes = map[Category]int64{
	CategoryImage: 5 * units.MiB,
	CategoryGIF:   15 * units.MiB,
	CategoryVideo: 512 * units.MiB,
}

// CategoryFor returns the category of a MIME type.
func CategoryFor(mimeType string) Category {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return CategoryVideo
	case strings.HasPrefix(mimeType, "image/gif"):
		return CategoryGIF
	default:
		return CategoryImage
	}
}

// ParseCategory accepts "", "auto" or one of the concrete categories.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.TrimSpace(s)); c {
	case "", CategoryAuto:
		return CategoryAuto, nil
	case CategoryImage, CategoryGIF, CategoryVideo:
		return c, nil
	default:
		return "", fmt.Errorf("invalid media category: %s", s)
	}
}

// Resolve replaces CategoryAuto (or an empty category) with the category of mimeType.
func (c Category) Resolve(mimeType string) Category {
	if c == "" || c == CategoryAuto {
		return CategoryFor(mimeType)
	}
	return c
}

// MaxSize is the largest accepted payload. Unknown categories get the image limit.
func (c Category) MaxSize() int64 {
	if size, ok := maxSizes[c]; ok {
		return size
	}
	return maxSizes[CategoryImage]
}

// CheckSize ...
func (c Category) CheckSize(size int64) error {
	if limit := c.MaxSize(); size > limit {
		return &PayloadTooLargeError{Size: size, Limit: limit, Category: c}
	}
	return nil
}
