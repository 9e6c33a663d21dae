package gateway

import (
	"fmt"
	"net/http"

	"github.com/peek-a-repo/peek/internal/preview"
)

// classify maps a non-2xx response to a preview error kind.
//
//   - 429, or 401/403 with X-RateLimit-Remaining: 0 -> RateLimited
//   - 401 -> NoCredential
//   - 403 -> NoCredential without a token, NoAccess with one
//   - 404 -> NoAccess (private repositories are reported as missing)
//   - anything else -> GenericFailure
func classify(resp *http.Response, hasToken bool) *preview.Error {
	status := resp.StatusCode
	err := &preview.Error{Status: status, Err: fmt.Errorf("%s", http.StatusText(status))}

	switch {
	case status == http.StatusTooManyRequests,
		(status == http.StatusUnauthorized || status == http.StatusForbidden) && resp.Header.Get("X-RateLimit-Remaining") == "0":
		err.Kind = preview.RateLimited
	case status == http.StatusUnauthorized:
		err.Kind = preview.NoCredential
	case status == http.StatusForbidden && !hasToken:
		err.Kind = preview.NoCredential
	case status == http.StatusForbidden, status == http.StatusNotFound:
		err.Kind = preview.NoAccess
	default:
		err.Kind = preview.GenericFailure
	}
	return err
}
