package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndanilin/virtnum/pkg/uow"
)

type AppServices struct {
	UserService    *UserService
	OrderService   *OrderService
	BalanceService *BalanceService
}

type FactoryArgs struct {
	Vendor      VendorGateway
	JWTSecret   []byte
	AdminKey    string
	DefaultCost decimal.Decimal
}

func Factory(unitOfWork uow.UOW, args FactoryArgs) (*AppServices, error) {
	userService, userServiceErr := NewUserService(unitOfWork, args.JWTSecret)
	if userServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", userServiceErr.Error())
	}

	orderService, orderServiceErr := NewOrderService(unitOfWork, args.Vendor, args.DefaultCost)
	if orderServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", orderServiceErr.Error())
	}

	balanceService, balanceServiceErr := NewBalanceService(unitOfWork, args.AdminKey)
	if balanceServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", balanceServiceErr.Error())
	}

	return &AppServices{
		UserService:    userService,
		OrderService:   orderService,
		BalanceService: balanceService,
	}, nil
}
