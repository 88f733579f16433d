package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/transport/api/middlewares"
	"github.com/shopspring/decimal"
)

type BalanceHandler struct {
	balanceService BalanceServicer
}

func NewBalanceHandler(balanceService BalanceServicer) *BalanceHandler {
	return &BalanceHandler{
		balanceService: balanceService,
	}
}

// Index GET RouteGroup + BalanceRoute. Текущий баланс юзера.
func (h *BalanceHandler) Index(c *gin.Context) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		_ = c.AbortWithError(http.StatusUnauthorized, middlewares.ErrTokenNotExist).
			SetType(gin.ErrorTypePrivate)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	balance, err := h.balanceService.GetBalance(ctx, userID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance.InexactFloat64()})
}

type CreditParams struct {
	Amount float64 `binding:"required,gt=0" json:"amount"`
}

// Credit POST RouteGroup + BalanceCreditRoute. Пополнение собственного баланса.
func (h *BalanceHandler) Credit(c *gin.Context) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		_ = c.AbortWithError(http.StatusUnauthorized, middlewares.ErrTokenNotExist).
			SetType(gin.ErrorTypePrivate)
		return
	}

	var params CreditParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	balance, err := h.balanceService.Credit(ctx, userID, decimal.NewFromFloat(params.Amount))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAmount) {
			_ = c.AbortWithError(http.StatusBadRequest, errors.New("amount must be positive")).
				SetType(gin.ErrorTypePublic)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance.InexactFloat64()})
}

type AdminCreditParams struct {
	SecretKey string  `binding:"required"      json:"secretKey"`
	UserID    int64   `binding:"required"      json:"userId"`
	Amount    float64 `binding:"required,gt=0" json:"amount"`
}

// AdminCredit POST RouteGroup + AdminCreditRoute. Админское пополнение чужого баланса.
// Авторизация секретом в теле запроса, секрет в ответы и логи не попадает.
func (h *BalanceHandler) AdminCredit(c *gin.Context) {
	var params AdminCreditParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	balance, err := h.balanceService.AdminCredit(ctx, params.SecretKey, params.UserID, decimal.NewFromFloat(params.Amount))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid secret key"})
		case errors.Is(err, domain.ErrRecordNotFound):
			_ = c.AbortWithError(http.StatusNotFound, errors.New("user not found")).
				SetType(gin.ErrorTypePublic)
		case errors.Is(err, domain.ErrInvalidAmount):
			_ = c.AbortWithError(http.StatusBadRequest, errors.New("amount must be positive")).
				SetType(gin.ErrorTypePublic)
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err).
				SetType(gin.ErrorTypePrivate)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "balance": balance.InexactFloat64()})
}
