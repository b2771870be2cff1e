package node

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bitrise-io/go-mediaupload/discovery"
	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-mediaupload/upload"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	uploadsPath = "/api/uploads"

	// MediaURLKey is the item JSON field holding the media URL.
	MediaURLKey = "mediaUrl"

	defaultPageSize = 100
	minPageSize     = 10
	maxPageSize     = 1000
)

// MediaKitParams ...
type MediaKitParams struct {
	Operation Operation
	// BinaryProperty names the item binary to upload. When empty the item's
	// MediaURLKey field is used.
	BinaryProperty string
	PageSize       int
	Page           int
}

// MediaKitOptions ...
type MediaKitOptions struct {
	// Store resolves binary references that carry no inline data.
	Store  media.Store
	Upload upload.Config
}

// MediaKit uploads to and lists the uploads of a Media Kit component.
type MediaKit struct {
	credentials ComponentCredentials
	resolver    *discovery.Resolver
	loader      *media.Loader
	uploader    *upload.TusUploader
	httpClient  *retryablehttp.Client
	logger      log.Logger
}

// NewMediaKit ...
func NewMediaKit(credentials ComponentCredentials, opts MediaKitOptions, logger log.Logger) *MediaKit {
	httpClient := retryhttp.NewClient(logger)
	httpClient.HTTPClient.Timeout = opts.Upload.Timeout()

	return &MediaKit{
		credentials: credentials,
		resolver:    discovery.NewResolver(logger),
		loader:      media.NewLoader(media.LoaderOptions{HTTPClient: httpClient, Store: opts.Store}, logger),
		uploader:    upload.NewTusUploader(opts.Upload, credentials.Authenticator(), logger),
		httpClient:  httpClient,
		logger:      logger,
	}
}

// Execute runs params.Operation over items.
func (n *MediaKit) Execute(ctx context.Context, items []Item, params MediaKitParams, continueOnFail bool) ([]Output, error) {
	if err := n.credentials.Validate(); err != nil {
		return nil, err
	}

	dispatcher := Dispatcher{
		OperationUploadMedia: func(ctx context.Context, _ int, item Item) ([]map[string]interface{}, error) {
			return n.uploadMedia(ctx, item, params)
		},
		OperationListMedia: func(ctx context.Context, _ int, _ Item) ([]map[string]interface{}, error) {
			return n.listMedia(ctx, params)
		},
	}
	fn, err := dispatcher.Handler(params.Operation)
	if err != nil {
		return nil, err
	}

	return Execute(ctx, items, continueOnFail, n.logger, fn)
}

func (n *MediaKit) uploadMedia(ctx context.Context, item Item, params MediaKitParams) ([]map[string]interface{}, error) {
	request, err := mediaRequest(item, params.BinaryProperty)
	if err != nil {
		return nil, err
	}

	resolved, err := n.loader.Load(ctx, request)
	if err != nil {
		return nil, err
	}

	endpoint, err := n.resolver.Resolve(ctx, n.credentials.URL, n.credentials.ComponentDID, uploadsPath)
	if err != nil {
		return nil, err
	}

	n.logger.Infof("Uploading %s to %s", resolved.FileName, endpoint)

	result, err := n.uploader.Upload(ctx, resolved, endpoint, upload.TusOptions{})
	if err != nil {
		return nil, err
	}

	n.logger.Donef("File %s uploaded successfully: %s", resolved.FileName, result.PublicURL)

	return []map[string]interface{}{{
		"fileName":        resolved.FileName,
		"mimeType":        resolved.MimeType,
		"fileExt":         resolved.Extension,
		"fileSize":        resolved.Size,
		"uploadedFileUrl": result.PublicURL,
	}}, nil
}

func (n *MediaKit) listMedia(ctx context.Context, params MediaKitParams) ([]map[string]interface{}, error) {
	endpoint, err := n.resolver.Resolve(ctx, n.credentials.URL, n.credentials.ComponentDID, uploadsPath)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(ClampPageSize(params.PageSize)))
	query.Set("page", strconv.Itoa(pageOrDefault(params.Page)))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	n.credentials.Authenticator().Authenticate(req.Request)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			n.logger.Printf(err.Error())
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list media: HTTP %d: %s", resp.StatusCode, body)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("list media: decode response: %w", err)
	}
	return jsonObjects(raw)
}

// ClampPageSize returns size limited to 10..1000, or 100 when unset.
func ClampPageSize(size int) int {
	switch {
	case size <= 0:
		return defaultPageSize
	case size < minPageSize:
		return minPageSize
	case size > maxPageSize:
		return maxPageSize
	default:
		return size
	}
}

func pageOrDefault(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func mediaRequest(item Item, binaryProperty string) (media.Request, error) {
	request := media.Request{URL: item.String(MediaURLKey)}
	if binaryProperty != "" {
		ref, ok := item.Binary[binaryProperty]
		if !ok || ref == nil {
			return media.Request{}, fmt.Errorf("item has no binary property %q", binaryProperty)
		}
		request.Binary = ref
	}
	return request, nil
}

// jsonObjects splits an array response into its elements; any other object
// becomes a single result.
func jsonObjects(raw json.RawMessage) ([]map[string]interface{}, error) {
	var list []map[string]interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var object map[string]interface{}
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, fmt.Errorf("unexpected response: %s", string(raw))
	}
	return []map[string]interface{}{object}, nil
}
