package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ndanilin/virtnum/internal/repository/repoargs"
	"github.com/shopspring/decimal"

	"github.com/ndanilin/virtnum/pkg/uow"

	"github.com/ndanilin/virtnum/internal/domain"
)

// OrderService управляет жизненным циклом заказа: аренда номера, осаживание по коду, блеклист.
// Единственный источник правды о балансах и статусах - хранилище с его атомарными примитивами,
// никаких in-process блокировок здесь нет.
type OrderService struct {
	uow         uow.UOW
	orderRepo   OrderRepository
	userRepo    UserRepository
	vendor      VendorGateway
	defaultCost decimal.Decimal
}

func NewOrderService(u uow.UOW, vendor VendorGateway, defaultCost decimal.Decimal) (*OrderService, error) {
	orderRepo, orderRepoErr := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if orderRepoErr != nil {
		return nil, orderRepoErr
	}
	userRepo, userRepoErr := uow.GetRepositoryAs[UserRepository](u, uow.RepositoryName(repoargs.UserRepoName))
	if userRepoErr != nil {
		return nil, userRepoErr
	}
	return &OrderService{
		uow:         u,
		orderRepo:   orderRepo,
		userRepo:    userRepo,
		vendor:      vendor,
		defaultCost: defaultCost,
	}, nil
}

// RequestNumber арендует номер у вендора и сохраняет заказ в статусе PENDING_CODE.
//
// Алгоритм работы:
//  1. Рекомендательная проверка баланса. Финальное принуждение происходит при осаживании,
//     а не здесь: вернуть арендованный номер вендору нельзя, поэтому до аренды мы можем
//     лишь отсечь заведомо пустые балансы.
//  2. Аренда у вендора. При отказе или сбое заказ не создается, баланс не трогается.
//  3. Создание заказа. Дубликат по тройке (юзер, номер, pid) вернется
//     как *domain.DuplicateOrderError.
func (o *OrderService) RequestNumber(ctx context.Context, userID int64, country, pid string) (*domain.Order, error) {
	cost := o.defaultCost

	user, userErr := o.userRepo.FindUserByID(ctx, userID)
	if userErr != nil {
		return nil, fmt.Errorf("requesting number: %w", userErr)
	}
	if user.Balance.LessThan(cost) {
		return nil, fmt.Errorf("requesting number: %w", domain.ErrNotEnoughBalance)
	}

	phoneNumber, leaseErr := o.vendor.LeaseNumber(ctx, country, pid)
	if leaseErr != nil {
		return nil, fmt.Errorf("requesting number: %w", leaseErr)
	}

	order, createErr := o.orderRepo.CreateOrder(ctx, repoargs.CreateOrder{
		UserID:      userID,
		PhoneNumber: phoneNumber,
		PID:         pid,
		Country:     country,
		Cost:        cost,
	})
	if createErr != nil {
		if errors.Is(createErr, domain.ErrDuplicateKey) {
			existing, existingErr := o.orderRepo.FindPending(ctx, repoargs.PendingOrderKey{
				UserID:      userID,
				PhoneNumber: phoneNumber,
				PID:         pid,
			})
			if existingErr != nil {
				return nil, fmt.Errorf("requesting number: %w", existingErr)
			}
			return nil, domain.NewDuplicateOrderError(existing)
		}
		return nil, fmt.Errorf("requesting number: %w", createErr)
	}

	return order, nil
}

type PollOutcome string

const (
	// PollNotReady код еще не пришел, состояние не менялось.
	PollNotReady PollOutcome = "NOT_READY"
	// PollSettled код получен, стоимость списана, заказ переведен в RECEIVED_CODE.
	PollSettled PollOutcome = "SETTLED"
	// PollAlreadyFinalized код получен, но PENDING_CODE заказа нет - повторного списания не будет.
	PollAlreadyFinalized PollOutcome = "ALREADY_FINALIZED"
	// PollUnsettled код получен, но списать стоимость не удалось: заказ остался PENDING_CODE.
	PollUnsettled PollOutcome = "UNSETTLED"
)

type PollResult struct {
	Outcome PollOutcome
	Code    string
	Order   *domain.Order
}

// PollAndSettle опрашивает вендора и, при настоящем коде, осаживает заказ: списание стоимости
// и перевод в RECEIVED_CODE.
//
// Алгоритм работы:
//  1. Поллинг вендора. Заглушка "код не пришел" - ожидаемый исход, не ошибка.
//  2. Поиск PENDING_CODE заказа по тройке (юзер, номер, pid). Если его нет, код возвращается
//     вызывающему без каких либо изменений в леджере - код юзеру все еще полезен, но второго
//     списания быть не должно.
//  3. Атомарное списание стоимости. При нехватке баланса заказ сознательно остается PENDING_CODE:
//     рассинхрон "списано" и "осажено" недопустим, даже ценой вечно неосаженного заказа.
//  4. CAS перевод PENDING_CODE -> RECEIVED_CODE. Проигрыш гонки конкурентному осаживанию
//     компенсируется обратным зачислением - пара списание+перевод ведет себя атомарно,
//     хотя физически это две операции.
func (o *OrderService) PollAndSettle(ctx context.Context, userID int64, phoneNumber, pid string) (*PollResult, error) {
	code, received, pollErr := o.vendor.PollCode(ctx, phoneNumber, pid)
	if pollErr != nil {
		return nil, fmt.Errorf("polling code: %w", pollErr)
	}
	if !received {
		return &PollResult{Outcome: PollNotReady}, nil
	}

	order, findErr := o.orderRepo.FindPending(ctx, repoargs.PendingOrderKey{
		UserID:      userID,
		PhoneNumber: phoneNumber,
		PID:         pid,
	})
	if findErr != nil {
		if errors.Is(findErr, domain.ErrRecordNotFound) {
			return &PollResult{Outcome: PollAlreadyFinalized, Code: code}, nil
		}
		return nil, fmt.Errorf("polling code: %w", findErr)
	}

	if _, debitErr := o.userRepo.AdjustBalance(ctx, userID, order.Cost.Neg()); debitErr != nil {
		if errors.Is(debitErr, domain.ErrNotEnoughBalance) {
			return &PollResult{Outcome: PollUnsettled, Code: code, Order: order}, nil
		}
		return nil, fmt.Errorf("polling code: %w", debitErr)
	}

	settled, transErr := o.orderRepo.Transition(ctx, repoargs.TransitionOrder{
		OrderID:      order.ID,
		FromStatus:   domain.OrderStatusPending,
		ToStatus:     domain.OrderStatusReceived,
		CodeReceived: &code,
	})
	if transErr != nil {
		// Списание уже применено - возвращаем его. Перевод не случился, значит заказ успел
		// осадить или заблеклистить кто-то другой.
		if _, refundErr := o.userRepo.AdjustBalance(ctx, userID, order.Cost); refundErr != nil {
			return nil, fmt.Errorf("polling code: compensating debit: %w", refundErr)
		}
		if errors.Is(transErr, domain.ErrStateConflict) {
			return &PollResult{Outcome: PollAlreadyFinalized, Code: code}, nil
		}
		return nil, fmt.Errorf("polling code: %w", transErr)
	}

	return &PollResult{Outcome: PollSettled, Code: code, Order: settled}, nil
}

// Blacklist закрывает заказ без списания и помечает номер сожженным у вендора.
// Вендорский блеклист выполняется даже когда локального заказа нет или он уже закрыт:
// вендорская сторона не зависит от нашей бухгалтерии.
func (o *OrderService) Blacklist(ctx context.Context, userID int64, phoneNumber, pid string) error {
	order, findErr := o.orderRepo.FindPending(ctx, repoargs.PendingOrderKey{
		UserID:      userID,
		PhoneNumber: phoneNumber,
		PID:         pid,
	})

	switch {
	case findErr == nil:
		_, transErr := o.orderRepo.Transition(ctx, repoargs.TransitionOrder{
			OrderID:    order.ID,
			FromStatus: domain.OrderStatusPending,
			ToStatus:   domain.OrderStatusBlacklisted,
		})
		// Проигрыш гонки (заказ успели осадить) для блеклиста не ошибка.
		if transErr != nil && !errors.Is(transErr, domain.ErrStateConflict) {
			return fmt.Errorf("blacklisting number: %w", transErr)
		}
	case errors.Is(findErr, domain.ErrRecordNotFound):
		// локального заказа нет, вендору об этом знать не обязательно.
	default:
		return fmt.Errorf("blacklisting number: %w", findErr)
	}

	if vendorErr := o.vendor.Blacklist(ctx, phoneNumber, pid); vendorErr != nil {
		return fmt.Errorf("blacklisting number: %w", vendorErr)
	}
	return nil
}

// GetByUserID Возвращает заказы юзера отсортированные по дате создания по убыванию.
func (o *OrderService) GetByUserID(ctx context.Context, userID int64) ([]domain.Order, error) {
	orders, err := o.orderRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return orders, nil
}

// Countries каталог стран вендора, сырой JSON для read-side отдачи наружу.
func (o *OrderService) Countries(ctx context.Context, pid string) (json.RawMessage, error) {
	countries, err := o.vendor.Countries(ctx, pid)
	if err != nil {
		return nil, fmt.Errorf("getting countries: %w", err)
	}
	return countries, nil
}
