package upload

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tusServer struct {
	createStatus int
	location     string
	patchStatus  int
	patchBody    string

	createHeader http.Header
	patchHeader  http.Header
	patchPath    string
	payload      []byte
	requests     int
}

func (s *tusServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests++
	switch r.Method {
	case http.MethodPost:
		s.createHeader = r.Header.Clone()
		if s.location != "" {
			w.Header().Set("Location", s.location)
		}
		w.WriteHeader(s.createStatus)
	case http.MethodPatch:
		s.patchHeader = r.Header.Clone()
		s.patchPath = r.URL.Path
		s.payload, _ = io.ReadAll(r.Body)
		w.WriteHeader(s.patchStatus)
		_, _ = fmt.Fprint(w, s.patchBody)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTusServer() *tusServer {
	return &tusServer{
		createStatus: http.StatusCreated,
		location:     "/api/uploads/Uploader-photo-1700000000000",
		patchStatus:  http.StatusOK,
		patchBody:    `{"url":"https://media.example.com/uploads/5f1c.png","filename":"5f1c.png"}`,
	}
}

func newTestTusUploader(t *testing.T, handler http.Handler) (*TusUploader, string) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	uploader := NewTusUploader(DefaultConfig(), BearerToken("access-key"), log.NewLogger())
	uploader.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return uploader, server.URL + "/media-kit/api/uploads"
}

func decodeMetadata(t *testing.T, header string) [][2]string {
	var pairs [][2]string
	for _, entry := range strings.Split(header, ",") {
		parts := strings.SplitN(entry, " ", 2)
		require.Len(t, parts, 2)
		value, err := base64.StdEncoding.DecodeString(parts[1])
		require.NoError(t, err)
		pairs = append(pairs, [2]string{parts[0], string(value)})
	}
	return pairs
}

func TestTusUploader_Upload(t *testing.T) {
	server := newTusServer()
	uploader, endpoint := newTestTusUploader(t, server)

	resolved := media.Resolved{FileName: "Photo (1).png", MimeType: "image/png", Extension: "png", Size: 5, Payload: []byte("hello")}
	result, err := uploader.Upload(context.Background(), resolved, endpoint, TusOptions{})
	require.NoError(t, err)

	assert.Equal(t, "https://media.example.com/uploads/5f1c.png", result.PublicURL)
	assert.True(t, result.ProcessingComplete)
	assert.Equal(t, "Photo (1).png", result.FileName)
	assert.Equal(t, StateSucceeded, result.Session.State())
	assert.Equal(t, int64(5), result.Session.BytesTransferred())
	assert.Equal(t, "Uploader-photo1-1700000000000", result.Session.ID)

	assert.Equal(t, "1.0.0", server.createHeader.Get("Tus-Resumable"))
	assert.Equal(t, "5", server.createHeader.Get("Upload-Length"))
	assert.Equal(t, "Bearer access-key", server.createHeader.Get("Authorization"))
	assert.Equal(t, [][2]string{
		{"uploaderId", "Uploader"},
		{"relativePath", "Photo (1).png"},
		{"name", "Photo (1).png"},
		{"type", "image/png"},
		{"filetype", "image/png"},
		{"filename", "Photo (1).png"},
	}, decodeMetadata(t, server.createHeader.Get("Upload-Metadata")))
	assert.Equal(t, "Uploader-photo1-1700000000000", server.createHeader.Get("x-uploader-file-id"))
	assert.Equal(t, "png", server.createHeader.Get("x-uploader-file-ext"))
	assert.Equal(t, endpoint, server.createHeader.Get("x-uploader-endpoint-url"))
	assert.Equal(t, `{"uploaderId":"Uploader","relativePath":"Photo (1).png","name":"Photo (1).png","type":"image/png"}`, server.createHeader.Get("x-uploader-metadata"))

	assert.Equal(t, "/api/uploads/Uploader-photo-1700000000000", server.patchPath)
	assert.Equal(t, "0", server.patchHeader.Get("Upload-Offset"))
	assert.Equal(t, "application/offset+octet-stream", server.patchHeader.Get("Content-Type"))
	assert.Equal(t, "true", server.patchHeader.Get("x-uploader-file-exist"))
	assert.Equal(t, []byte("hello"), server.payload)
}

func TestTusUploader_Upload_Errors(t *testing.T) {
	tests := []struct {
		name      string
		configure func(s *tusServer)
		check     func(t *testing.T, err error)
	}{
		{
			name:      "creation rejected",
			configure: func(s *tusServer) { s.createStatus = http.StatusForbidden },
			check: func(t *testing.T, err error) {
				var initErr *SessionInitError
				require.True(t, errors.As(err, &initErr))
				var httpErr *HTTPError
				require.True(t, errors.As(err, &httpErr))
				assert.Equal(t, http.StatusForbidden, httpErr.StatusCode)
			},
		},
		{
			name:      "no location",
			configure: func(s *tusServer) { s.location = "" },
			check: func(t *testing.T, err error) {
				var initErr *SessionInitError
				require.True(t, errors.As(err, &initErr))
				assert.Contains(t, initErr.Error(), "no upload URL received from server")
			},
		},
		{
			name:      "patch rejected",
			configure: func(s *tusServer) { s.patchStatus = http.StatusConflict },
			check: func(t *testing.T, err error) {
				var chunkErr *ChunkTransferError
				require.True(t, errors.As(err, &chunkErr))
				assert.Equal(t, int64(0), chunkErr.Offset)
			},
		},
		{
			name:      "no public url",
			configure: func(s *tusServer) { s.patchBody = `{"filename":"5f1c.png"}` },
			check: func(t *testing.T, err error) {
				var finalizeErr *FinalizeError
				require.True(t, errors.As(err, &finalizeErr))
				assert.Contains(t, finalizeErr.Error(), "no URL found in the upload response")
			},
		},
		{
			name:      "invalid response",
			configure: func(s *tusServer) { s.patchBody = `<html>` },
			check: func(t *testing.T, err error) {
				var finalizeErr *FinalizeError
				require.True(t, errors.As(err, &finalizeErr))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTusServer()
			tt.configure(server)
			uploader, endpoint := newTestTusUploader(t, server)

			_, err := uploader.Upload(context.Background(), resolvedImage("hello"), endpoint, TusOptions{})

			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestTusUploader_Upload_InvalidEndpoint(t *testing.T) {
	uploader := NewTusUploader(DefaultConfig(), nil, log.NewLogger())

	_, err := uploader.Upload(context.Background(), resolvedImage("hello"), "not-a-url", TusOptions{})

	var initErr *SessionInitError
	assert.True(t, errors.As(err, &initErr))
}

func TestTusUploader_Upload_NoExtension(t *testing.T) {
	server := newTusServer()
	uploader, endpoint := newTestTusUploader(t, server)

	resolved := media.Resolved{FileName: "README", MimeType: "application/octet-stream", Size: 2, Payload: []byte("hi")}
	result, err := uploader.Upload(context.Background(), resolved, endpoint, TusOptions{UploaderID: "Bot"})
	require.NoError(t, err)

	assert.Equal(t, "README", result.FileName)
	assert.Equal(t, "Bot-readme-1700000000000", result.Session.ID)
	assert.Equal(t, "README", server.createHeader.Get("x-uploader-file-name"))
}
