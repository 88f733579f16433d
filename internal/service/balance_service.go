package service

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/repository/repoargs"
	"github.com/ndanilin/virtnum/pkg/uow"
)

// BalanceService read-side леджера: баланс и пополнения. Пополнения идут через тот же
// атомарный AdjustBalance, что и списания движка заказов - потерянных обновлений не бывает.
type BalanceService struct {
	uow      uow.UOW
	userRepo UserRepository
	adminKey string
}

func NewBalanceService(u uow.UOW, adminKey string) (*BalanceService, error) {
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr
	}
	return &BalanceService{
		uow:      u,
		userRepo: userRepo,
		adminKey: adminKey,
	}, nil
}

func (b *BalanceService) GetBalance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	user, err := b.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return decimal.Zero, err //nolint:wrapcheck
	}
	return user.Balance, nil
}

// Credit пополняет баланс юзера на amount. Принимает только строго положительные суммы,
// поэтому на ErrNotEnoughBalance упасть не может. Возвращает итоговый баланс.
func (b *BalanceService) Credit(ctx context.Context, userID int64, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("crediting balance: %w", domain.ErrInvalidAmount)
	}
	balance, err := b.userRepo.AdjustBalance(ctx, userID, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("crediting balance: %w", err)
	}
	return balance, nil
}

// AdminCredit пополняет баланс произвольного юзера при предъявлении админского секрета.
// Сравнение только на полное совпадение и за константное время; при несовпадении баланс
// не меняется, а предъявленный секрет никуда не логируется и не возвращается.
func (b *BalanceService) AdminCredit(
	ctx context.Context,
	adminKey string,
	targetUserID int64,
	amount decimal.Decimal,
) (decimal.Decimal, error) {
	if subtle.ConstantTimeCompare([]byte(adminKey), []byte(b.adminKey)) != 1 {
		return decimal.Zero, fmt.Errorf("admin crediting balance: %w", domain.ErrUnauthorized)
	}
	return b.Credit(ctx, targetUserID, amount)
}
