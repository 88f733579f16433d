package domain

import (
	"github.com/shopspring/decimal"

	"time"
)

type User struct {
	ID                int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Username          string
	EncryptedPassword string
	Balance           decimal.Decimal
}

type Order struct {
	ID           int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserID       int64
	PhoneNumber  string
	PID          string
	Country      string
	Cost         decimal.Decimal
	Status       OrderStatusType
	CodeReceived *string
}
