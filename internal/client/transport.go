package client

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// authTransport attaches the current access token at send time and runs the
// single refresh-and-retry round on authentication failures. The token is
// read when the request goes out, not when it was built, so requests racing
// an in-progress refresh pick up the fresh token. Auth endpoints pass
// through untouched, which keeps a failing refresh from ever triggering
// another refresh.
type authTransport struct {
	client *Client
	base   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isAuthPath(req.URL.Path) {
		return t.base.RoundTrip(req)
	}

	attempt := req.Clone(req.Context())
	if token := t.client.accessToken(); token != "" {
		attempt.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(attempt)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// The first attempt consumed the body. Without GetBody the request
	// cannot be replayed, so the caller sees the original 401.
	if req.Body != nil && req.GetBody == nil {
		return resp, nil
	}
	drainAndClose(resp.Body)

	if err := t.client.silentRefresh(req.Context()); err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("replay request body: %w", err)
		}
		retry.Body = body
	}
	if token := t.client.accessToken(); token != "" {
		retry.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(retry)
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/")
}

func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
