package domain

type OrderStatusType string

// Статусы заказа. PENDING_CODE - начальный, RECEIVED_CODE и BLACKLISTED - терминальные,
// из терминальных статусов переходов нет.
const (
	OrderStatusPending     OrderStatusType = "PENDING_CODE"
	OrderStatusReceived    OrderStatusType = "RECEIVED_CODE"
	OrderStatusBlacklisted OrderStatusType = "BLACKLISTED"
)
