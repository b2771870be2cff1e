package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitrise-io/go-mediaupload/media"
	"github.com/bitrise-io/go-mediaupload/upload"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlocklet struct {
	server   *httptest.Server
	mux      *http.ServeMux
	uploaded []byte
	listURL  string
	auth     string
}

func newFakeBlocklet(t *testing.T) *fakeBlocklet {
	b := &fakeBlocklet{mux: http.NewServeMux()}
	b.server = httptest.NewServer(b.mux)
	t.Cleanup(b.server.Close)

	b.mux.HandleFunc("/__blocklet__.js", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"componentMountPoints":[{"did":%q,"mountPoint":"/media-kit/"}]}`, MediaKitDID)
	})
	b.mux.HandleFunc("/media-kit/api/uploads", func(w http.ResponseWriter, r *http.Request) {
		b.auth = r.Header.Get("Authorization")
		switch r.Method {
		case http.MethodPost:
			w.Header().Set("Location", "/media-kit/api/uploads/abc123")
			w.WriteHeader(http.StatusCreated)
		case http.MethodGet:
			b.listURL = r.URL.String()
			_, _ = fmt.Fprint(w, `[{"filename":"a.png"},{"filename":"b.png"}]`)
		}
	})
	b.mux.HandleFunc("/media-kit/api/uploads/abc123", func(w http.ResponseWriter, r *http.Request) {
		b.uploaded, _ = io.ReadAll(r.Body)
		_, _ = fmt.Fprintf(w, `{"url":"%s/uploads/abc123.png"}`, b.server.URL)
	})
	b.mux.HandleFunc("/cat.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})

	return b
}

func (b *fakeBlocklet) mediaKit() *MediaKit {
	credentials := ComponentCredentials{URL: b.server.URL + "/some/page", AccessKey: "access-key", ComponentDID: MediaKitDID}
	return NewMediaKit(credentials, MediaKitOptions{}, log.NewLogger())
}

func TestMediaKit_UploadMedia_URL(t *testing.T) {
	blocklet := newFakeBlocklet(t)
	items := []Item{{JSON: map[string]interface{}{MediaURLKey: blocklet.server.URL + "/cat.png"}}}

	outputs, err := blocklet.mediaKit().Execute(context.Background(), items, MediaKitParams{Operation: OperationUploadMedia}, false)
	require.NoError(t, err)

	require.Len(t, outputs, 1)
	assert.Equal(t, map[string]interface{}{
		"fileName":        "cat.png",
		"mimeType":        "image/png",
		"fileExt":         "png",
		"fileSize":        int64(9),
		"uploadedFileUrl": blocklet.server.URL + "/uploads/abc123.png",
	}, outputs[0].JSON)
	assert.Equal(t, []byte("png-bytes"), blocklet.uploaded)
	assert.Equal(t, "Bearer access-key", blocklet.auth)
}

func TestMediaKit_UploadMedia_Binary(t *testing.T) {
	blocklet := newFakeBlocklet(t)
	items := []Item{{Binary: map[string]*media.BinaryRef{
		"data": {FileName: "notes.txt", MimeType: "text/plain", Data: []byte("hello")},
	}}}

	outputs, err := blocklet.mediaKit().Execute(context.Background(), items, MediaKitParams{Operation: OperationUploadMedia, BinaryProperty: "data"}, false)
	require.NoError(t, err)

	require.Len(t, outputs, 1)
	assert.Equal(t, "notes.txt", outputs[0].JSON["fileName"])
	assert.Equal(t, "txt", outputs[0].JSON["fileExt"])
	assert.Equal(t, []byte("hello"), blocklet.uploaded)
}

func TestMediaKit_UploadMedia_SourceErrors(t *testing.T) {
	blocklet := newFakeBlocklet(t)
	binary := map[string]*media.BinaryRef{"data": {FileName: "a.png", Data: []byte("a")}}
	items := []Item{
		{JSON: map[string]interface{}{MediaURLKey: blocklet.server.URL + "/cat.png"}, Binary: binary},
		{JSON: map[string]interface{}{}},
		{JSON: map[string]interface{}{MediaURLKey: "not a url"}},
	}

	outputs, err := blocklet.mediaKit().Execute(context.Background(), items, MediaKitParams{Operation: OperationUploadMedia, BinaryProperty: "data"}, true)
	require.NoError(t, err)

	require.Len(t, outputs, 3)
	for i, output := range outputs {
		assert.Equal(t, i, output.PairedItem)
		assert.Contains(t, output.JSON, "error")
	}
	assert.Equal(t, media.ErrAmbiguousSource.Error(), outputs[0].JSON["error"])
	assert.Nil(t, blocklet.uploaded)
}

func TestMediaKit_UploadMedia_ComponentNotFound(t *testing.T) {
	blocklet := newFakeBlocklet(t)
	credentials := ComponentCredentials{URL: blocklet.server.URL, AccessKey: "key", ComponentDID: SnapKitDID}
	mediaKit := NewMediaKit(credentials, MediaKitOptions{}, log.NewLogger())
	items := []Item{{JSON: map[string]interface{}{MediaURLKey: blocklet.server.URL + "/cat.png"}}}

	_, err := mediaKit.Execute(context.Background(), items, MediaKitParams{Operation: OperationUploadMedia}, false)

	var itemErr *ItemError
	require.True(t, errors.As(err, &itemErr))
	assert.Contains(t, err.Error(), "component "+SnapKitDID+" not found in: "+blocklet.server.URL)
}

func TestMediaKit_ListMedia(t *testing.T) {
	blocklet := newFakeBlocklet(t)

	outputs, err := blocklet.mediaKit().Execute(context.Background(), []Item{{}}, MediaKitParams{Operation: OperationListMedia, PageSize: 5000}, false)
	require.NoError(t, err)

	assert.Equal(t, "/media-kit/api/uploads?page=1&pageSize=1000", blocklet.listURL)
	require.Len(t, outputs, 2)
	assert.Equal(t, "b.png", outputs[1].JSON["filename"])
	assert.Equal(t, "Bearer access-key", blocklet.auth)
}

func TestMediaKit_UnknownOperation(t *testing.T) {
	blocklet := newFakeBlocklet(t)

	_, err := blocklet.mediaKit().Execute(context.Background(), []Item{{}}, MediaKitParams{Operation: "deleteMedia"}, true)
	assert.True(t, errors.Is(err, ErrUnknownOperation))
}

func TestClampPageSize(t *testing.T) {
	for size, want := range map[int]int{0: 100, -5: 100, 1: 10, 10: 10, 250: 250, 1000: 1000, 1001: 1000} {
		assert.Equal(t, want, ClampPageSize(size), size)
	}
}

func Test_jsonObjects(t *testing.T) {
	list, err := jsonObjects([]byte(`[{"a":1},{"b":2}]`))
	require.NoError(t, err)
	assert.Len(t, list, 2)

	object, err := jsonObjects([]byte(`{"total":3,"uploads":[]}`))
	require.NoError(t, err)
	require.Len(t, object, 1)
	assert.Equal(t, float64(3), object[0]["total"])

	_, err = jsonObjects([]byte(`"text"`))
	assert.Error(t, err)
}

func TestNewMediaKit_RequestTimeout(t *testing.T) {
	credentials := ComponentCredentials{URL: "https://blocklet.example.com", AccessKey: "key", ComponentDID: MediaKitDID}

	mediaKit := NewMediaKit(credentials, MediaKitOptions{}, log.NewLogger())
	assert.Equal(t, upload.DefaultConfig().RequestTimeout, mediaKit.httpClient.HTTPClient.Timeout)

	mediaKit = NewMediaKit(credentials, MediaKitOptions{Upload: upload.Config{RequestTimeout: 30 * time.Second}}, log.NewLogger())
	assert.Equal(t, 30*time.Second, mediaKit.httpClient.HTTPClient.Timeout)
}
