package ports

import "context"

// ObserverPort answers a single forced-choice or yes/no trial at level x
type ObserverPort interface {
	Respond(ctx context.Context, x float64) (bool, error)
}
