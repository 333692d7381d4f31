package repository

import (
	"context"

	"omnicast/domain/model"
)

// ProgressFunc receives each step of a running delivery. A returned error
// aborts the delivery.
type ProgressFunc func(ctx context.Context, step model.DeliveryStep) error

// IPlatformUploader pushes a stored video to one external platform.
type IPlatformUploader interface {
	Upload(ctx context.Context, job model.DeliveryJob, report ProgressFunc) (*model.ExternalRef, error)
}

// IDeliveryObserver is notified after every persisted delivery change.
type IDeliveryObserver interface {
	Name() string
	Observe(ctx context.Context, event model.DeliveryEvent) error
}
