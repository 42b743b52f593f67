package newrelic

import (
	"net/http"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// InstrumentHTTPRequest runs doFunc inside an external segment when req's context carries a transaction
func InstrumentHTTPRequest(req *http.Request, doFunc func() (*http.Response, error)) (*http.Response, error) {
	txn := newrelic.FromContext(req.Context())
	if txn == nil {
		return doFunc()
	}

	segment := newrelic.StartExternalSegment(txn, req)
	defer segment.End()

	resp, err := doFunc()
	if resp != nil {
		segment.Response = resp
	}
	return resp, err
}
