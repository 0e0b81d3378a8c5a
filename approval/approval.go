// Package approval implements the human gate between preview and publish.
package approval

import (
	"context"
	"errors"
)

// ErrAborted means the reviewer left without deciding.
var ErrAborted = errors.New("approval aborted")

// Request describes the post awaiting a decision.
type Request struct {
	RunID       string
	Title       string
	Caption     string // markdown
	ImageURL    string
	PreviewHTML string
}

// Approver blocks until a reviewer approves or rejects req.
// A rejection is (false, nil).
type Approver interface {
	Await(ctx context.Context, req Request) (bool, error)
}

// Preparer is implemented by approvers that must know about a run before the
// reviewer is notified. Prepare returns the URL to put in the notification.
type Preparer interface {
	Prepare(ctx context.Context, req Request) (string, error)
}
