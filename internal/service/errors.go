package service

import (
	"errors"
	"fmt"
)

var (
	ErrItemNotFound           = errors.New("item not found")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrItemNotInBasket        = errors.New("item not in basket")
	ErrEmptyBasket            = errors.New("basket is empty")
	ErrConcurrentModification = errors.New("basket was modified concurrently")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrPersistence            = errors.New("store unavailable")
	ErrSeedingFailed          = errors.New("catalog seeding failed")
	ErrValidation             = errors.New("validation error")
	ErrOrderNotFound          = errors.New("order not found")
)

// persistence marks a store failure as ErrPersistence while keeping the
// cause in the message.
func persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrPersistence, op, err)
}
