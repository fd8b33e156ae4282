package ports

import (
	"context"

	"github.com/layer-3/recipebook/core"
)

// EventPublisher notifies the application that a session has ended and the
// user must sign in again
type EventPublisher interface {
	PublishSessionEnded(ctx context.Context, username string, reason core.SessionEndReason) error
}
