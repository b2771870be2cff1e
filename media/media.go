// Package media turns an upload request (a URL or a binary attached to a
// workflow item) into an in-memory payload with a file name, MIME type and
// extension.
package media

import (
	"errors"
	"net/url"
	"strings"
)

// DefaultMimeType is used when neither the source nor the file name tell the type.
const DefaultMimeType = "application/octet-stream"

var (
	// ErrNoSource is returned when a request has neither a URL nor a binary.
	ErrNoSource = errors.New("no binary data or media URL provided")
	// ErrAmbiguousSource is returned when a request has both a URL and a binary.
	ErrAmbiguousSource = errors.New("only one of binary data or media URL can be provided")
	// ErrInvalidURL ...
	ErrInvalidURL = errors.New("invalid media URL")
)

// Kind ...
type Kind int

const (
	// KindUnknown ...
	KindUnknown Kind = iota
	// KindURL means the payload is downloaded from Request.URL.
	KindURL
	// KindInlineBinary means the payload comes from Request.Binary.
	KindInlineBinary
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindInlineBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// BinaryRef is binary data attached to a workflow item. Either Data holds the
// bytes or ID points at an object in a Store.
type BinaryRef struct {
	ID       string
	FileName string
	MimeType string
	Data     []byte
}

// Request describes where an upload payload comes from.
// Exactly one of URL and Binary must be set.
type Request struct {
	URL    string
	Binary *BinaryRef

	// FileName and MimeType override what is detected from the source.
	FileName string
	MimeType string
}

// Kind ...
func (r Request) Kind() Kind {
	switch {
	case r.URL != "" && r.Binary == nil:
		return KindURL
	case r.URL == "" && r.Binary != nil:
		return KindInlineBinary
	default:
		return KindUnknown
	}
}

// Validate ...
func (r Request) Validate() error {
	if r.URL != "" && r.Binary != nil {
		return ErrAmbiguousSource
	}
	if r.URL == "" && r.Binary == nil {
		return ErrNoSource
	}
	if r.URL != "" && !IsURL(r.URL) {
		return ErrInvalidURL
	}
	return nil
}

// Resolved is a payload ready for upload. It is derived once per request and
// not modified afterwards.
type Resolved struct {
	FileName  string
	MimeType  string
	Extension string
	Size      int64
	Payload   []byte
}

// BaseName returns the file name without its last extension.
func (r Resolved) BaseName() string {
	if i := strings.LastIndex(r.FileName, "."); i > 0 {
		return r.FileName[:i]
	}
	return r.FileName
}

// IsURL reports whether s is an absolute http(s) URL.
func IsURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
