package pgrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/repository/repoargs"
	"github.com/ndanilin/virtnum/pkg/uow"
)

const userColumns = "id, created_at, updated_at, username, encrypted_password, balance"

type UserRepository struct {
	db uow.DBTX
}

func NewUserRepository(db uow.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser создает юзера в базе данных с нулевым балансом. В случае конфликта юзернейма возвращает
// ошибку domain.ErrDuplicateKey, во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error) {
	row := u.db.QueryRow(ctx, `
		INSERT INTO users (username, encrypted_password)
		VALUES ($1, $2)
		RETURNING `+userColumns,
		args.Username, args.Password,
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "creating user")
	}
	return user, nil
}

// FindUserByUsername ищет юзера по его юзернейму. Возвращает ошибку domain.ErrRecordNotFound если запись
// не найдена, во всех других случаях - domain.ErrUnknown.
func (u *UserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by username %s", username)
	}
	return user, nil
}

func (u *UserRepository) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by id %d", id)
	}
	return user, nil
}

// AdjustBalance атомарно применяет delta (положительную или отрицательную) к балансу юзера.
// Условие balance + delta >= 0 проверяется тем же UPDATE, что и запись - никакого read-then-write.
// Возвращает итоговый баланс. Ошибки: domain.ErrNotEnoughBalance если списание уводит баланс
// в минус, domain.ErrRecordNotFound если юзера нет.
func (u *UserRepository) AdjustBalance(
	ctx context.Context,
	userID int64,
	delta decimal.Decimal,
) (decimal.Decimal, error) {
	row := u.db.QueryRow(ctx, `
		UPDATE users
		SET balance = balance + $2, updated_at = now()
		WHERE id = $1 AND balance + $2 >= 0
		RETURNING balance`,
		userID, delta,
	)

	var balance decimal.Decimal
	if err := row.Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// UPDATE никого не задел: либо юзера нет, либо не хватило баланса.
			var exists bool
			existsRow := u.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID)
			if existsErr := existsRow.Scan(&exists); existsErr != nil {
				return decimal.Zero, convertErr(existsErr, "adjusting balance for user %d", userID)
			}
			if exists {
				return decimal.Zero, fmt.Errorf("[repository/adjusting balance for user %d] %w", userID, domain.ErrNotEnoughBalance)
			}
			return decimal.Zero, convertErr(err, "adjusting balance for user %d", userID)
		}
		return decimal.Zero, convertErr(err, "adjusting balance for user %d", userID)
	}
	return balance, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Username,
		&user.EncryptedPassword,
		&user.Balance,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
