package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-utils/v2/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TusVersion is sent in the Tus-Resumable header.
	TusVersion = "1.0.0"
	// DefaultUploaderID identifies the uploading client to the service.
	DefaultUploaderID = "Uploader"

	offsetStreamContentType = "application/offset+octet-stream"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]`)

// TusOptions ...
type TusOptions struct {
	// UploaderID defaults to DefaultUploaderID.
	UploaderID string
}

// Result of a finished upload.
type Result struct {
	// PublicURL is set by the tus flow.
	PublicURL string
	// MediaID is set by the segmented flow.
	MediaID            string
	Category           Category
	ProcessingComplete bool
	ExpiresAfterSecs   int64
	Size               int64
	MimeType           string
	FileName           string
	StatusChecks       int
	Session            *Session
}

type uploaderMetadata struct {
	UploaderID   string `json:"uploaderId"`
	RelativePath string `json:"relativePath"`
	Name         string `json:"name"`
	Type         string `json:"type"`
}

type tusResponse struct {
	URL string `json:"url"`
}

// TusUploader sends a payload with the tus resumable upload protocol as a
// creation request followed by a single PATCH.
type TusUploader struct {
	client      apiClient
	logger      log.Logger
	now         func() time.Time
	instruments instruments
}

// NewTusUploader ...
func NewTusUploader(config Config, auth Authenticator, logger log.Logger) *TusUploader {
	config = config.withDefaults()
	return &TusUploader{
		client:      newAPIClient(newHTTPClient(config, logger), auth, logger),
		logger:      logger,
		now:         time.Now,
		instruments: newInstruments(),
	}
}

// Upload sends resolved to endpoint and returns the public URL the service
// reports for it.
func (u *TusUploader) Upload(ctx context.Context, resolved media.Resolved, endpoint string, opts TusOptions) (result *Result, err error) {
	ctx, span := tracer().Start(ctx, "upload.tus", trace.WithAttributes(
		attribute.String("upload.endpoint", endpoint),
		attribute.Int64("upload.total_bytes", resolved.Size),
	))
	defer func() {
		u.instruments.uploads.Add(ctx, 1, metric.WithAttributes(
			attribute.String("upload.protocol", "tus"),
			attribute.Bool("upload.success", err == nil),
		))
		endSpan(span, err)
	}()

	uploaderID := opts.UploaderID
	if uploaderID == "" {
		uploaderID = DefaultUploaderID
	}

	endpointURL, err := url.Parse(endpoint)
	if err != nil || !endpointURL.IsAbs() {
		return nil, &SessionInitError{Reason: fmt.Sprintf("invalid endpoint: %s", endpoint), Err: err}
	}

	baseName := resolved.BaseName()
	fullName := baseName
	if resolved.Extension != "" {
		fullName = baseName + "." + resolved.Extension
	}
	fileID := fmt.Sprintf("%s-%s-%d", uploaderID, nonAlphanumeric.ReplaceAllString(strings.ToLower(baseName), ""), u.now().UnixMilli())

	uploaderHeader, err := u.uploaderHeader(uploaderID, fileID, fullName, resolved, endpoint)
	if err != nil {
		return nil, &SessionInitError{Err: err}
	}

	u.logger.Debugf("Creating upload %s (%d bytes) at %s", fileID, resolved.Size, endpoint)

	location, err := u.create(ctx, endpointURL, uploaderID, fullName, resolved, uploaderHeader)
	if err != nil {
		return nil, err
	}

	session := newSession(fileID, location, resolved.Size)
	if err := session.transition(StateTransferring); err != nil {
		return nil, err
	}

	publicURL, err := u.patch(ctx, session, resolved, uploaderHeader)
	if err != nil {
		return nil, session.fail(err)
	}
	if err := session.transition(StateSucceeded); err != nil {
		return nil, session.fail(err)
	}

	u.logger.Debugf("Upload %s finished: %s", fileID, publicURL)

	return &Result{
		PublicURL:          publicURL,
		ProcessingComplete: true,
		Size:               resolved.Size,
		MimeType:           resolved.MimeType,
		FileName:           fullName,
		Session:            session,
	}, nil
}

func (u *TusUploader) uploaderHeader(uploaderID, fileID, fullName string, resolved media.Resolved, endpoint string) (http.Header, error) {
	metadata, err := json.Marshal(uploaderMetadata{
		UploaderID:   uploaderID,
		RelativePath: fullName,
		Name:         fullName,
		Type:         resolved.MimeType,
	})
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("x-uploader-file-name", fullName)
	header.Set("x-uploader-file-id", fileID)
	header.Set("x-uploader-file-ext", resolved.Extension)
	header.Set("x-uploader-base-url", endpoint)
	header.Set("x-uploader-endpoint-url", endpoint)
	header.Set("x-uploader-metadata", string(metadata))
	return header, nil
}

func (u *TusUploader) create(ctx context.Context, endpoint *url.URL, uploaderID, fullName string, resolved media.Resolved, uploaderHeader http.Header) (location string, err error) {
	ctx, span := tracer().Start(ctx, "upload.tus.create")
	defer func() { endSpan(span, err) }()

	header := uploaderHeader.Clone()
	header.Set("Tus-Resumable", TusVersion)
	header.Set("Upload-Length", strconv.FormatInt(resolved.Size, 10))
	header.Set("Upload-Metadata", EncodeMetadata([]MetadataPair{
		{Key: "uploaderId", Value: uploaderID},
		{Key: "relativePath", Value: fullName},
		{Key: "name", Value: fullName},
		{Key: "type", Value: resolved.MimeType},
		{Key: "filetype", Value: resolved.MimeType},
		{Key: "filename", Value: fullName},
	}))

	resp, err := u.client.do(ctx, http.MethodPost, endpoint.String(), nil, header)
	if err != nil {
		return "", &SessionInitError{Err: err}
	}
	defer u.client.closeBody(resp.Body)

	if !isSuccess(resp) {
		return "", &SessionInitError{Err: unwrapError(resp)}
	}

	rawLocation := resp.Header.Get("Location")
	if rawLocation == "" {
		return "", &SessionInitError{Reason: "no upload URL received from server"}
	}
	locationURL, err := endpoint.Parse(rawLocation)
	if err != nil {
		return "", &SessionInitError{Reason: fmt.Sprintf("invalid upload URL: %s", rawLocation), Err: err}
	}

	return locationURL.String(), nil
}

func (u *TusUploader) patch(ctx context.Context, session *Session, resolved media.Resolved, uploaderHeader http.Header) (publicURL string, err error) {
	ctx, span := tracer().Start(ctx, "upload.tus.patch", trace.WithAttributes(attribute.String("upload.session", session.ID)))
	defer func() { endSpan(span, err) }()

	header := uploaderHeader.Clone()
	header.Set("Tus-Resumable", TusVersion)
	header.Set("Upload-Offset", "0")
	header.Set("Content-Type", offsetStreamContentType)
	header.Set("x-uploader-file-exist", "true")

	start := time.Now()
	resp, err := u.client.do(ctx, http.MethodPatch, session.Endpoint, resolved.Payload, header)
	if err != nil {
		return "", &ChunkTransferError{Offset: 0, Err: err}
	}
	defer u.client.closeBody(resp.Body)

	if !isSuccess(resp) {
		return "", &ChunkTransferError{Offset: 0, Err: unwrapError(resp)}
	}

	session.advance(resolved.Size)
	u.instruments.transferredBytes.Add(ctx, resolved.Size, metric.WithAttributes(attribute.String("upload.protocol", "tus")))
	u.logger.Debugf("Payload of %d bytes transferred in %s", resolved.Size, time.Since(start).Round(time.Millisecond))

	if err := session.transition(StateFinalizing); err != nil {
		return "", err
	}

	var response tusResponse
	if err := decodeJSON(resp, &response); err != nil {
		return "", &FinalizeError{Err: err}
	}
	if response.URL == "" {
		return "", &FinalizeError{Reason: "no URL found in the upload response"}
	}

	return response.URL, nil
}
