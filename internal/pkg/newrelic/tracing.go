package newrelic

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// StartSegment opens a segment on the transaction carried by ctx. The returned
// func ends it and is safe to call when ctx has no transaction.
func StartSegment(ctx context.Context, name string) func() {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return func() {}
	}
	seg := txn.StartSegment(name)
	return seg.End
}

// AddAttribute adds a custom attribute to the transaction carried by ctx
func AddAttribute(ctx context.Context, key string, value interface{}) {
	if txn := newrelic.FromContext(ctx); txn != nil {
		txn.AddAttribute(key, value)
	}
}

// NoticeError reports err on the transaction carried by ctx
func NoticeError(ctx context.Context, err error) {
	if txn := newrelic.FromContext(ctx); txn != nil && err != nil {
		txn.NoticeError(err)
	}
}
