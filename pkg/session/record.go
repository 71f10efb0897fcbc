// Package session persists browser login state across runs and manages
// the browser's lifecycle from launch through authenticated readiness to
// shutdown.
package session

import (
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// Record is the on-disk session snapshot. Timestamp is epoch
// milliseconds so saved files stay readable by the browser tooling that
// shares this format.
type Record struct {
	Cookies   []*proto.NetworkCookie `json:"cookies"`
	Timestamp int64                  `json:"timestamp"`
	UserAgent string                 `json:"userAgent,omitempty"`
}

// NewRecord builds a record stamped with the current time.
func NewRecord(cookies []*proto.NetworkCookie, userAgent string) *Record {
	return &Record{
		Cookies:   cookies,
		Timestamp: time.Now().UnixMilli(),
		UserAgent: userAgent,
	}
}

// Age returns how long ago the record was captured.
func (r *Record) Age() time.Duration {
	return time.Since(time.UnixMilli(r.Timestamp))
}

// IsStale reports whether the record is older than maxAge. Stale records
// are still loadable; the caller decides whether to use them.
func (r *Record) IsStale(maxAge time.Duration) bool {
	return r.Age() > maxAge
}
