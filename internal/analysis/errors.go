package analysis

import "errors"

var (
	// ErrWrongMediaKind indicates an input of the wrong kind reached an
	// analysis operation (image analysis given a video, or vice versa).
	ErrWrongMediaKind = errors.New("wrong media kind for analysis")
	// ErrGateway wraps any AI gateway failure. Gateway calls are not
	// retried; the failure is reported once and the service returns to idle.
	ErrGateway = errors.New("gateway failure")
)
