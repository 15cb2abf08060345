package ports

import "net/http"

// HTTPClient is the minimal client gateway adapters depend on, so provider
// calls can be stubbed in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
