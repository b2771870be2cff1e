package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-retryablehttp"
)

// Authenticator adds credentials to an outgoing request.
type Authenticator interface {
	Authenticate(req *http.Request)
}

// BearerToken authenticates with an "Authorization: Bearer" header.
type BearerToken string

// Authenticate ...
func (t BearerToken) Authenticate(req *http.Request) {
	if t != "" {
		req.Header.Set("Authorization", "Bearer "+string(t))
	}
}

// SessionCookies authenticates with browser session cookies and the
// matching CSRF header.
type SessionCookies struct {
	AuthToken string
	CSRFToken string
}

// Authenticate ...
func (c SessionCookies) Authenticate(req *http.Request) {
	cookies := []string{"auth_token=" + c.AuthToken}
	if c.CSRFToken != "" {
		cookies = append(cookies, "ct0="+c.CSRFToken)
		req.Header.Set("X-CSRF-Token", c.CSRFToken)
	}
	req.Header.Set("Cookie", strings.Join(cookies, "; "))
}

var redactedHeaders = []string{"Authorization", "Cookie", "X-CSRF-Token"}

type apiClient struct {
	httpClient *retryablehttp.Client
	auth       Authenticator
	logger     log.Logger
}

func newAPIClient(client *retryablehttp.Client, auth Authenticator, logger log.Logger) apiClient {
	return apiClient{
		httpClient: client,
		auth:       auth,
		logger:     logger,
	}
}

// do sends a request. Body can be nil, []byte or io.ReadSeeker. The caller
// owns the response body.
func (c apiClient) do(ctx context.Context, method, url string, body interface{}, header http.Header) (*http.Response, error) {
	switch b := body.(type) {
	case nil, []byte, io.ReadSeeker:
		// do nothing
	default:
		return nil, fmt.Errorf("invalid body type: %T", b)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if c.auth != nil {
		c.auth.Authenticate(req.Request)
	}

	c.dumpRequest(req.Request)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	dump, err := httputil.DumpResponse(resp, true)
	if err != nil {
		c.logger.Warnf("error while dumping response: %s", err)
	}
	c.logger.Debugf("Response dump: %s", string(dump))

	return resp, nil
}

func (c apiClient) dumpRequest(req *http.Request) {
	redacted := req.Clone(req.Context())
	for _, key := range redactedHeaders {
		if redacted.Header.Get(key) != "" {
			redacted.Header.Set(key, "[REDACTED]")
		}
	}
	dump, err := httputil.DumpRequest(redacted, false)
	if err != nil {
		c.logger.Warnf("error while dumping request: %s", err)
	}
	c.logger.Debugf("Request dump: %s", string(dump))
}

func (c apiClient) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Printf(err.Error())
	}
}

func isSuccess(resp *http.Response) bool {
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func unwrapError(resp *http.Response) error {
	errorResp, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return &HTTPError{StatusCode: resp.StatusCode, Body: string(errorResp)}
}

func decodeJSON(resp *http.Response, v interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
