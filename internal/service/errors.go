package service

import (
	"fmt"

	"github.com/dtroode/vibenotes-server/internal/model"
)

// storageError marks err as a file store failure.
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", model.ErrStorage, op, err)
}
