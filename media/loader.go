package media

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/docker/go-units"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const maxErrorBodySize = 1024

var filenamePattern = regexp.MustCompile(`filename="?([^"]+)"?`)

// LoaderOptions ...
type LoaderOptions struct {
	// HTTPClient downloads URL sources. Defaults to retryhttp.NewClient.
	HTTPClient *retryablehttp.Client
	// Timeout bounds a single download of the default client.
	Timeout time.Duration
	// Store resolves binaries attached by id. Optional.
	Store Store
	// FallbackName names payloads whose source carries no file name.
	// Defaults to "file".
	FallbackName func() string
}

// Loader resolves upload requests into payloads.
type Loader struct {
	httpClient   *retryablehttp.Client
	store        Store
	fallbackName func() string
	logger       log.Logger
}

// NewLoader ...
func NewLoader(opts LoaderOptions, logger log.Logger) *Loader {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = retryhttp.NewClient(logger)
		httpClient.HTTPClient.Timeout = opts.Timeout
	}
	fallbackName := opts.FallbackName
	if fallbackName == nil {
		fallbackName = func() string { return "file" }
	}

	return &Loader{
		httpClient:   httpClient,
		store:        opts.Store,
		fallbackName: fallbackName,
		logger:       logger,
	}
}

// Load validates the request and reads its payload into memory.
func (l *Loader) Load(ctx context.Context, request Request) (Resolved, error) {
	if err := request.Validate(); err != nil {
		return Resolved{}, err
	}

	var (
		payload  []byte
		fileName string
		mimeType string
		err      error
	)
	switch request.Kind() {
	case KindURL:
		payload, fileName, mimeType, err = l.loadURL(ctx, request.URL)
	case KindInlineBinary:
		payload, fileName, mimeType, err = l.loadBinary(ctx, request.Binary)
	}
	if err != nil {
		return Resolved{}, err
	}

	if request.FileName != "" {
		fileName = request.FileName
	}
	if fileName == "" {
		fileName = l.fallbackName()
	}
	if request.MimeType != "" {
		mimeType = request.MimeType
	}
	mimeType = MimeType(mimeType, fileName)

	resolved := Resolved{
		FileName:  fileName,
		MimeType:  mimeType,
		Extension: Extension(mimeType, fileName),
		Size:      int64(len(payload)),
		Payload:   payload,
	}
	l.logger.Debugf("Resolved %s source: %s (%s, %s)", request.Kind(), resolved.FileName, resolved.MimeType,
		units.HumanSizeWithPrecision(float64(resolved.Size), 3))

	return resolved, nil
}

func (l *Loader) loadURL(ctx context.Context, mediaURL string) ([]byte, string, string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, "", "", err
	}
	req.Header.Set("Accept-Encoding", "zstd, gzip")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, "", "", fmt.Errorf("download media: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			l.logger.Warnf("close response body: %s", err)
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, "", "", fmt.Errorf("download media: HTTP %d: %s", resp.StatusCode, body)
	}

	payload, err := readDecoded(resp)
	if err != nil {
		return nil, "", "", fmt.Errorf("read media: %w", err)
	}

	return payload, fileNameFromResponse(resp.Header, mediaURL), resp.Header.Get("Content-Type"), nil
}

func (l *Loader) loadBinary(ctx context.Context, ref *BinaryRef) ([]byte, string, string, error) {
	fileName := ref.FileName
	if ref.ID == "" || l.store == nil {
		if ref.ID != "" && ref.Data == nil {
			return nil, "", "", fmt.Errorf("binary %s is stored externally but no binary store is configured", ref.ID)
		}
		return ref.Data, fileName, ref.MimeType, nil
	}

	object, err := l.store.Get(ctx, ref.ID)
	if err != nil {
		return nil, "", "", fmt.Errorf("get binary %s: %w", ref.ID, err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			l.logger.Warnf("close binary: %s", err)
		}
	}(object.Body)

	payload, err := io.ReadAll(object.Body)
	if err != nil {
		return nil, "", "", fmt.Errorf("read binary %s: %w", ref.ID, err)
	}

	if fileName == "" {
		fileName = object.FileName
	}
	if fileName == "" {
		fileName = ref.ID
	}
	mimeType := ref.MimeType
	if mimeType == "" {
		mimeType = object.MimeType
	}

	return payload, fileName, mimeType, nil
}

func readDecoded(resp *http.Response) ([]byte, error) {
	switch encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))); encoding {
	case "", "identity":
		return io.ReadAll(resp.Body)
	case "gzip":
		reader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer reader.Close() //nolint:errcheck
		return io.ReadAll(reader)
	case "zstd":
		decoder, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer decoder.Close()
		return io.ReadAll(decoder)
	default:
		return nil, fmt.Errorf("unsupported content encoding: %s", encoding)
	}
}

func fileNameFromResponse(header http.Header, mediaURL string) string {
	if disposition := header.Get("Content-Disposition"); disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return params["filename"]
		}
		if match := filenamePattern.FindStringSubmatch(disposition); match != nil {
			return match[1]
		}
	}

	u, err := url.Parse(mediaURL)
	if err != nil {
		return ""
	}
	if base := path.Base(u.Path); base != "." && base != "/" {
		return base
	}
	return ""
}
