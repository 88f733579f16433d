package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/repository/repoargs"
	"github.com/ndanilin/virtnum/pkg/uow"
)

const orderColumns = "id, created_at, updated_at, user_id, phone_number, pid, country, cost, status, code_received"

type OrderRepository struct {
	db uow.DBTX
}

func NewOrderRepository(db uow.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder сохраняет новый заказ в статусе PENDING_CODE. Частичный уникальный индекс по
// (user_id, phone_number, pid) для PENDING_CODE гарантирует не более одного активного заказа
// на тройку - при нарушении вернется domain.ErrDuplicateKey.
func (o *OrderRepository) CreateOrder(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	row := o.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, phone_number, pid, country, cost, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+orderColumns,
		args.UserID, args.PhoneNumber, args.PID, args.Country, args.Cost, domain.OrderStatusPending,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order for number `%s`", args.PhoneNumber)
	}
	return order, nil
}

// FindPending ищет PENDING_CODE заказ по тройке (юзер, номер, pid). Возвращает
// domain.ErrRecordNotFound если активного заказа нет.
func (o *OrderRepository) FindPending(ctx context.Context, key repoargs.PendingOrderKey) (*domain.Order, error) {
	row := o.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1 AND phone_number = $2 AND pid = $3 AND status = $4`,
		key.UserID, key.PhoneNumber, key.PID, domain.OrderStatusPending,
	)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "finding pending order for number `%s`", key.PhoneNumber)
	}
	return order, nil
}

// Transition выполняет compare-and-swap перевод заказа между статусами одним UPDATE.
// Если текущий статус не совпадает с FromStatus (или заказа нет), возвращает domain.ErrStateConflict -
// это защита от двойного осаживания заказа конкурентными запросами.
func (o *OrderRepository) Transition(ctx context.Context, args repoargs.TransitionOrder) (*domain.Order, error) {
	row := o.db.QueryRow(ctx, `
		UPDATE orders
		SET status = $3, code_received = COALESCE($4, code_received), updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+orderColumns,
		args.OrderID, args.FromStatus, args.ToStatus, args.CodeReceived,
	)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf(
				"[repository/transitioning order %d to %s] %w",
				args.OrderID, args.ToStatus, domain.ErrStateConflict,
			)
		}
		return nil, convertErr(err, "transitioning order %d to %s", args.OrderID, args.ToStatus)
	}
	return order, nil
}

// GetByUserID Возвращает список заказов по id юзера, отсортированный по дате создания по убыванию.
func (o *OrderRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	rows, err := o.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, convertErr(err, "getting orders by userID `%d`", userID)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "getting orders by userID `%d`", userID)
		}
		orders = append(orders, *order)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting orders by userID `%d`", userID)
	}
	return orders, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	err := row.Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.UserID,
		&order.PhoneNumber,
		&order.PID,
		&order.Country,
		&order.Cost,
		&order.Status,
		&order.CodeReceived,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}
