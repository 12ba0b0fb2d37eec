package varbyte

import "errors"

// ErrTruncated indicates a varbyte stream ended mid-value: the continuation
// bit was set on the final byte available.
var ErrTruncated = errors.New("varbyte: truncated stream")
