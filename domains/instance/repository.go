package instance

import "context"

type IInstanceRepository interface {
	Create(ctx context.Context, inst *Instance) error
	GetByID(ctx context.Context, id string) (*Instance, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*Instance, error)
	ListByUser(ctx context.Context, userID string) ([]Instance, error)
	Update(ctx context.Context, inst *Instance) error
	// Delete removes the instance together with its conversations and
	// messages (cascading ownership).
	Delete(ctx context.Context, id string) error
}
