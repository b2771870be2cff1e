package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"time"

	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSegmentedEndpoint is the media upload endpoint of the social platform.
const DefaultSegmentedEndpoint = "https://upload.twitter.com/1.1/media/upload.json"

const formContentType = "application/x-www-form-urlencoded"

// SegmentedOptions ...
type SegmentedOptions struct {
	// Category defaults to CategoryAuto.
	Category Category
	// AltText is attached to the media on FINALIZE when set.
	AltText string
}

type initResponse struct {
	MediaIDString    string `json:"media_id_string"`
	ExpiresAfterSecs int64  `json:"expires_after_secs"`
}

type finalizeResponse struct {
	MediaIDString    string          `json:"media_id_string"`
	Size             int64           `json:"size"`
	ExpiresAfterSecs int64           `json:"expires_after_secs"`
	ProcessingInfo   *ProcessingInfo `json:"processing_info"`
}

type statusResponse struct {
	MediaIDString  string          `json:"media_id_string"`
	ProcessingInfo *ProcessingInfo `json:"processing_info"`
}

type altText struct {
	Text string `json:"text"`
}

// SegmentedUploader sends a payload with the INIT, APPEND, FINALIZE and
// STATUS command protocol.
type SegmentedUploader struct {
	client      apiClient
	endpoint    string
	chunkSize   int64
	poller      *Poller
	logger      log.Logger
	instruments instruments
}

// NewSegmentedUploader uses DefaultSegmentedEndpoint when endpoint is empty.
func NewSegmentedUploader(endpoint string, config Config, auth Authenticator, logger log.Logger) *SegmentedUploader {
	config = config.withDefaults()
	if endpoint == "" {
		endpoint = DefaultSegmentedEndpoint
	}
	return &SegmentedUploader{
		client:      newAPIClient(newHTTPClient(config, logger), auth, logger),
		endpoint:    endpoint,
		chunkSize:   config.ChunkSize,
		poller:      NewPoller(config.PollInterval, config.MaxPolls, logger),
		logger:      logger,
		instruments: newInstruments(),
	}
}

// Upload checks the size ceiling of the category before any request is made.
func (u *SegmentedUploader) Upload(ctx context.Context, resolved media.Resolved, opts SegmentedOptions) (result *Result, err error) {
	category := opts.Category.Resolve(resolved.MimeType)

	ctx, span := tracer().Start(ctx, "upload.segmented", trace.WithAttributes(
		attribute.String("upload.endpoint", u.endpoint),
		attribute.String("upload.category", string(category)),
		attribute.Int64("upload.total_bytes", resolved.Size),
	))
	defer func() {
		u.instruments.uploads.Add(ctx, 1, metric.WithAttributes(
			attribute.String("upload.protocol", "segmented"),
			attribute.Bool("upload.success", err == nil),
		))
		endSpan(span, err)
	}()

	if err := category.CheckSize(resolved.Size); err != nil {
		return nil, err
	}

	u.logger.Debugf("Uploading %s (%s) as %s", resolved.FileName, units.HumanSizeWithPrecision(float64(resolved.Size), 3), category)

	initResp, err := u.initialize(ctx, resolved, category)
	if err != nil {
		return nil, err
	}

	session := newSession(initResp.MediaIDString, u.endpoint, resolved.Size)
	if err := session.transition(StateTransferring); err != nil {
		return nil, err
	}

	if err := u.appendChunks(ctx, session, resolved.Payload); err != nil {
		return nil, session.fail(err)
	}

	if err := session.transition(StateFinalizing); err != nil {
		return nil, session.fail(err)
	}

	finalized, err := u.finalize(ctx, session, opts.AltText)
	if err != nil {
		return nil, session.fail(err)
	}

	checks := 0
	if status := finalized.ProcessingInfo.Status(); status != nil {
		switch status.State {
		case ProcessingFailed:
			return nil, session.fail(&ProcessingFailedError{ServerMessage: status.ErrorDetail})
		case ProcessingPending:
			checks, err = u.poller.Poll(ctx, u.statusCheck(session.ID))
			if err != nil {
				return nil, session.fail(err)
			}
		}
	}

	if err := session.transition(StateSucceeded); err != nil {
		return nil, session.fail(err)
	}

	expires := finalized.ExpiresAfterSecs
	if expires == 0 {
		expires = initResp.ExpiresAfterSecs
	}

	return &Result{
		MediaID:            session.ID,
		Category:           category,
		ProcessingComplete: true,
		ExpiresAfterSecs:   expires,
		Size:               resolved.Size,
		MimeType:           resolved.MimeType,
		FileName:           resolved.FileName,
		StatusChecks:       checks,
		Session:            session,
	}, nil
}

func (u *SegmentedUploader) initialize(ctx context.Context, resolved media.Resolved, category Category) (response initResponse, err error) {
	ctx, span := tracer().Start(ctx, "upload.segmented.init")
	defer func() { endSpan(span, err) }()

	form := url.Values{}
	form.Set("command", "INIT")
	form.Set("total_bytes", strconv.FormatInt(resolved.Size, 10))
	form.Set("media_type", resolved.MimeType)
	form.Set("media_category", string(category))

	resp, err := u.postForm(ctx, form)
	if err != nil {
		return initResponse{}, &SessionInitError{Err: err}
	}
	defer u.client.closeBody(resp.Body)

	if !isSuccess(resp) {
		return initResponse{}, &SessionInitError{Err: unwrapError(resp)}
	}
	if err := decodeJSON(resp, &response); err != nil {
		return initResponse{}, &SessionInitError{Err: err}
	}
	if response.MediaIDString == "" {
		return initResponse{}, &SessionInitError{Reason: "no media_id received from server"}
	}

	return response, nil
}

func (u *SegmentedUploader) appendChunks(ctx context.Context, session *Session, payload []byte) error {
	provider := NewByteSliceChunkProvider(payload, u.chunkSize)
	stats := NewStats()
	numChunks := provider.NumChunks()

	for i := 0; i < numChunks; i++ {
		start := time.Now()
		if err := u.appendChunk(ctx, session.ID, provider, i); err != nil {
			return &ChunkTransferError{Offset: provider.Offset(i), SegmentIndex: i, Err: err}
		}

		size := provider.ChunkSize(i)
		stats.Update(time.Since(start), size)
		session.advance(size)
		u.instruments.transferredBytes.Add(ctx, size, metric.WithAttributes(attribute.String("upload.protocol", "segmented")))
		u.logger.Debugf("Segment %d/%d uploaded (%d bytes), average %s", i+1, numChunks, size, stats.Average().Round(time.Millisecond))
	}

	u.logger.TDebugf("%d segments (%s) appended in %s", stats.FinishedCount(), units.HumanSizeWithPrecision(float64(stats.Bytes()), 3), stats.TotalDuration().Round(time.Millisecond))
	return nil
}

func (u *SegmentedUploader) appendChunk(ctx context.Context, mediaID string, provider ChunkProvider, index int) (err error) {
	ctx, span := tracer().Start(ctx, "upload.segmented.append", trace.WithAttributes(attribute.Int("upload.segment_index", index)))
	defer func() { endSpan(span, err) }()

	chunk, err := provider.GetChunk(index)
	if err != nil {
		return err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := []struct{ key, value string }{
		{"command", "APPEND"},
		{"media_id", mediaID},
		{"segment_index", strconv.Itoa(index)},
	}
	for _, field := range fields {
		if err := writer.WriteField(field.key, field.value); err != nil {
			return err
		}
	}

	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", `form-data; name="media"`)
	partHeader.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, chunk); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	header := http.Header{}
	header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.do(ctx, http.MethodPost, u.endpoint, body.Bytes(), header)
	if err != nil {
		return err
	}
	defer u.client.closeBody(resp.Body)

	if !isSuccess(resp) {
		return unwrapError(resp)
	}
	return nil
}

func (u *SegmentedUploader) finalize(ctx context.Context, session *Session, alt string) (response finalizeResponse, err error) {
	ctx, span := tracer().Start(ctx, "upload.segmented.finalize")
	defer func() { endSpan(span, err) }()

	form := url.Values{}
	form.Set("command", "FINALIZE")
	form.Set("media_id", session.ID)
	if alt != "" {
		encoded, err := json.Marshal(altText{Text: alt})
		if err != nil {
			return finalizeResponse{}, &FinalizeError{Err: err}
		}
		form.Set("alt_text", string(encoded))
	}

	resp, err := u.postForm(ctx, form)
	if err != nil {
		return finalizeResponse{}, &FinalizeError{Err: err}
	}
	defer u.client.closeBody(resp.Body)

	if !isSuccess(resp) {
		return finalizeResponse{}, &FinalizeError{Err: unwrapError(resp)}
	}
	if err := decodeJSON(resp, &response); err != nil {
		return finalizeResponse{}, &FinalizeError{Err: err}
	}

	return response, nil
}

func (u *SegmentedUploader) statusCheck(mediaID string) StatusCheck {
	return func(ctx context.Context) (*ProcessingStatus, error) {
		u.instruments.statusChecks.Add(ctx, 1)

		query := url.Values{}
		query.Set("command", "STATUS")
		query.Set("media_id", mediaID)

		resp, err := u.client.do(ctx, http.MethodGet, u.endpoint+"?"+query.Encode(), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("check processing status: %w", err)
		}
		defer u.client.closeBody(resp.Body)

		if !isSuccess(resp) {
			return nil, fmt.Errorf("check processing status: %w", unwrapError(resp))
		}

		var response statusResponse
		if err := decodeJSON(resp, &response); err != nil {
			return nil, fmt.Errorf("check processing status: %w", err)
		}
		return response.ProcessingInfo.Status(), nil
	}
}

func (u *SegmentedUploader) postForm(ctx context.Context, form url.Values) (*http.Response, error) {
	header := http.Header{}
	header.Set("Content-Type", formContentType)
	return u.client.do(ctx, http.MethodPost, u.endpoint, []byte(form.Encode()), header)
}
