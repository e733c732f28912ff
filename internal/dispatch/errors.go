package dispatch

import "errors"

var (
	// ErrUploadFailed is returned by Upload when the collector did not
	// answer 200. Transport failures wrap registry.ErrTransport as well.
	ErrUploadFailed = errors.New("dispatch: upload failed")

	// ErrNoPoster is returned by NewDispatcher without a primary sink.
	ErrNoPoster = errors.New("dispatch: poster is required")
)
