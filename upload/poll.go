package upload

import (
	"context"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
)

// ProcessingState is the server side processing phase of an upload.
type ProcessingState int

const (
	// ProcessingPending covers every state that is neither succeeded nor failed.
	ProcessingPending ProcessingState = iota
	// ProcessingSucceeded ...
	ProcessingSucceeded
	// ProcessingFailed ...
	ProcessingFailed
)

// ProcessingStatus ...
type ProcessingStatus struct {
	State       ProcessingState
	ErrorDetail string
}

// ProcessingInfo is the processing_info object of FINALIZE and STATUS responses.
type ProcessingInfo struct {
	State           string               `json:"state"`
	CheckAfterSecs  int                  `json:"check_after_secs,omitempty"`
	ProgressPercent int                  `json:"progress_percent,omitempty"`
	Error           *ProcessingErrorInfo `json:"error,omitempty"`
}

// ProcessingErrorInfo ...
type ProcessingErrorInfo struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Status maps the wire state. A nil info means processing is complete.
func (p *ProcessingInfo) Status() *ProcessingStatus {
	if p == nil {
		return nil
	}
	switch p.State {
	case "succeeded":
		return &ProcessingStatus{State: ProcessingSucceeded}
	case "failed":
		status := &ProcessingStatus{State: ProcessingFailed}
		if p.Error != nil {
			status.ErrorDetail = p.Error.Message
		}
		return status
	default:
		return &ProcessingStatus{State: ProcessingPending}
	}
}

// StatusCheck queries the processing state once. A nil status means the
// service reports no processing in progress.
type StatusCheck func(ctx context.Context) (*ProcessingStatus, error)

// Poller repeats a StatusCheck on a fixed interval until processing
// finishes or the attempts run out. It waits before every check,
// including the first.
type Poller struct {
	Interval    time.Duration
	MaxAttempts int

	logger log.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPoller ...
func NewPoller(interval time.Duration, maxAttempts int, logger log.Logger) *Poller {
	return &Poller{
		Interval:    interval,
		MaxAttempts: maxAttempts,
		logger:      logger,
		sleep:       sleepContext,
	}
}

// Poll returns the number of checks issued.
func (p *Poller) Poll(ctx context.Context, check StatusCheck) (int, error) {
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := p.sleep(ctx, p.Interval); err != nil {
			return attempt - 1, err
		}

		status, err := check(ctx)
		if err != nil {
			return attempt, err
		}
		if status == nil || status.State == ProcessingSucceeded {
			p.logger.Debugf("Processing finished after %d status checks", attempt)
			return attempt, nil
		}
		if status.State == ProcessingFailed {
			return attempt, &ProcessingFailedError{ServerMessage: status.ErrorDetail}
		}

		p.logger.Debugf("Processing pending (%d/%d)", attempt, p.MaxAttempts)
	}

	return p.MaxAttempts, &ProcessingTimeoutError{
		Attempts: p.MaxAttempts,
		Waited:   time.Duration(p.MaxAttempts) * p.Interval,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
