package model

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned by store lookups when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrMissingDependency marks an extractor whose backend library is
	// unavailable in this build. Not fatal to the run.
	ErrMissingDependency = errors.New("missing dependency")

	// ErrUnsupportedType marks a file extension with no registered extractor.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ErrorKind classifies ingestion failures for statistics and the action log.
type ErrorKind string

const (
	KindUnsupportedType   ErrorKind = "unsupported_type"
	KindMissingDependency ErrorKind = "missing_dependency"
	KindInvalidHash       ErrorKind = "invalid_hash"
	KindInvalidData       ErrorKind = "invalid_data"
	KindTimeout           ErrorKind = "timeout"
	KindTransient         ErrorKind = "transient"
	KindPermanent         ErrorKind = "permanent"
	KindMaxDepthExceeded  ErrorKind = "max_depth_exceeded"
	KindInternal          ErrorKind = "internal"
)

// transientMarkers are matched case-insensitively against error text to
// decide whether an operation is worth retrying.
var transientMarkers = []string{
	"connection", "timeout", "locked", "busy", "deadlock", "network", "temporary",
}

// IsTransient reports whether err looks like a retryable storage failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
