// Package slot provides the durable single-value storage primitive that holds
// the serialized listing array.
package slot

import (
	"context"
	"fmt"

	"car-classifieds/internal/domain"
)

// Slot 一个命名的持久化槽位，整体读、整体写
type Slot interface {
	// Load returns nil, nil when the slot has never been written.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the whole content.
	Save(ctx context.Context, b []byte) error
}

func persistErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
}
