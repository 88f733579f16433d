package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPasswordMissMatch = errors.New("password mismatch")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknown           = errors.New("unknown error")

	ErrNotEnoughBalance = errors.New("not enough balance")
	ErrStateConflict    = errors.New("order state conflict")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// DuplicateOrderError возвращается при попытке создать второй PENDING_CODE заказ
// на ту же тройку (юзер, номер, pid).
type DuplicateOrderError struct {
	Order *Order
}

func NewDuplicateOrderError(order *Order) error {
	return &DuplicateOrderError{Order: order}
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf(
		"pending order for number %s (pid %s) already exists for user with id %d",
		e.Order.PhoneNumber,
		e.Order.PID,
		e.Order.UserID,
	)
}
