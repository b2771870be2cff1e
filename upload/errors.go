package upload

import (
	"fmt"
	"time"
)

// HTTPError is a non-2xx response from the upload service.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

// PayloadTooLargeError is returned before any request is made when the
// payload exceeds the ceiling of its media category.
type PayloadTooLargeError struct {
	Size     int64
	Limit    int64
	Category Category
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("file size %d bytes exceeds maximum allowed size of %d bytes for %s", e.Size, e.Limit, e.Category)
}

// SessionInitError is returned when INIT fails or yields no usable session handle.
type SessionInitError struct {
	Reason string
	Err    error
}

func (e *SessionInitError) Error() string {
	switch {
	case e.Err != nil && e.Reason != "":
		return fmt.Sprintf("initialize upload: %s: %s", e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("initialize upload: %s", e.Err)
	default:
		return fmt.Sprintf("initialize upload: %s", e.Reason)
	}
}

func (e *SessionInitError) Unwrap() error {
	return e.Err
}

// ChunkTransferError is returned when a PATCH or APPEND call fails.
// Offset is the position of the first byte of the failed chunk.
type ChunkTransferError struct {
	Offset       int64
	SegmentIndex int
	Err          error
}

func (e *ChunkTransferError) Error() string {
	return fmt.Sprintf("transfer chunk %d at offset %d: %s", e.SegmentIndex, e.Offset, e.Err)
}

func (e *ChunkTransferError) Unwrap() error {
	return e.Err
}

// FinalizeError is returned when completing the upload fails.
type FinalizeError struct {
	Reason string
	Err    error
}

func (e *FinalizeError) Error() string {
	switch {
	case e.Err != nil && e.Reason != "":
		return fmt.Sprintf("finalize upload: %s: %s", e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("finalize upload: %s", e.Err)
	default:
		return fmt.Sprintf("finalize upload: %s", e.Reason)
	}
}

func (e *FinalizeError) Unwrap() error {
	return e.Err
}

// ProcessingFailedError is returned when the service reports that
// asynchronous processing of the media failed.
type ProcessingFailedError struct {
	ServerMessage string
}

func (e *ProcessingFailedError) Error() string {
	message := e.ServerMessage
	if message == "" {
		message = "Unknown error"
	}
	return fmt.Sprintf("media processing failed: %s", message)
}

// ProcessingTimeoutError is returned when processing did not finish within
// the allowed number of status checks.
type ProcessingTimeoutError struct {
	Attempts int
	Waited   time.Duration
}

func (e *ProcessingTimeoutError) Error() string {
	return fmt.Sprintf("media processing timed out after %s (%d status checks)", e.Waited, e.Attempts)
}
