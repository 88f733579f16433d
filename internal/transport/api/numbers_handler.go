package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/service"
	"github.com/ndanilin/virtnum/internal/transport/api/middlewares"
)

type NumbersHandler struct {
	orderService OrderServicer
}

func NewNumbersHandler(orderService OrderServicer) *NumbersHandler {
	return &NumbersHandler{
		orderService: orderService,
	}
}

type RequestNumberParams struct {
	Country string `binding:"required" form:"country" json:"country"`
	PID     string `binding:"required" form:"pid"     json:"pid"`
}

// RequestNumber POST RouteGroup + NumbersRoute. Арендует номер у вендора и создает заказ.
func (h *NumbersHandler) RequestNumber(c *gin.Context) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		_ = c.AbortWithError(http.StatusUnauthorized, middlewares.ErrTokenNotExist).
			SetType(gin.ErrorTypePrivate)
		return
	}

	var params RequestNumberParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, err := h.orderService.RequestNumber(ctx, userID, params.Country, params.PID)
	if err != nil {
		var dupErr *domain.DuplicateOrderError
		switch {
		case errors.Is(err, domain.ErrNotEnoughBalance):
			_ = c.AbortWithError(http.StatusPaymentRequired, err).
				SetType(gin.ErrorTypePrivate)
		case errors.As(err, &dupErr):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success":     false,
				"message":     "pending order for this number already exists",
				"phoneNumber": dupErr.Order.PhoneNumber,
			})
		case abortWithVendorError(c, err):
		default:
			_ = c.AbortWithError(http.StatusInternalServerError, err).
				SetType(gin.ErrorTypePrivate)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"phoneNumber": order.PhoneNumber,
		"orderId":     order.ID,
		"cost":        order.Cost.InexactFloat64(),
	})
}

type NumberKeyParams struct {
	PhoneNumber string `binding:"required" form:"phoneNumber" json:"phoneNumber"`
	PID         string `binding:"required" form:"pid"         json:"pid"`
}

// GetCode GET RouteGroup + NumberCodeRoute. Однократный опрос кода у вендора. Если код настоящий -
// заказ осаживается: списание стоимости и перевод в RECEIVED_CODE. Повторных попыток и фонового
// поллинга нет, клиент дергает ручку сам.
func (h *NumbersHandler) GetCode(c *gin.Context) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		_ = c.AbortWithError(http.StatusUnauthorized, middlewares.ErrTokenNotExist).
			SetType(gin.ErrorTypePrivate)
		return
	}

	var params NumberKeyParams
	if bindErr := c.ShouldBindQuery(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	result, err := h.orderService.PollAndSettle(ctx, userID, params.PhoneNumber, params.PID)
	if err != nil {
		if abortWithVendorError(c, err) {
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	switch result.Outcome {
	case service.PollNotReady:
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "code not received yet"})
	case service.PollSettled:
		c.JSON(http.StatusOK, gin.H{"success": true, "code": result.Code, "settled": true})
	case service.PollAlreadyFinalized:
		c.JSON(http.StatusOK, gin.H{"success": true, "code": result.Code})
	case service.PollUnsettled:
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"code":    result.Code,
			"settled": false,
			"message": "insufficient balance, order left pending",
		})
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, errors.New("unexpected poll outcome")).
			SetType(gin.ErrorTypePrivate)
	}
}

// Blacklist POST RouteGroup + BlacklistRoute. Помечает номер сожженным: локальный заказ закрывается
// без списания, номер уходит в блеклист вендора. Идемпотентна.
func (h *NumbersHandler) Blacklist(c *gin.Context) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		_ = c.AbortWithError(http.StatusUnauthorized, middlewares.ErrTokenNotExist).
			SetType(gin.ErrorTypePrivate)
		return
	}

	var params NumberKeyParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).
			SetType(gin.ErrorTypeBind)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := h.orderService.Blacklist(ctx, userID, params.PhoneNumber, params.PID); err != nil {
		if abortWithVendorError(c, err) {
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "number blacklisted"})
}

// History GET RouteGroup + HistoryRoute. Заказы юзера, свежие первыми.
func (h *NumbersHandler) History(c *gin.Context) {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		_ = c.AbortWithError(http.StatusUnauthorized, middlewares.ErrTokenNotExist).
			SetType(gin.ErrorTypePrivate)
		return
	}

	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := h.orderService.GetByUserID(ctx, userID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	items := make([]gin.H, 0, len(orders))
	for _, order := range orders {
		items = append(items, orderJSON(&order))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": items})
}

// Countries GET RouteGroup + CountriesRoute. Прокси каталога стран вендора, JSON отдается как есть.
func (h *NumbersHandler) Countries(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	countries, err := h.orderService.Countries(ctx, c.Query("pid"))
	if err != nil {
		if abortWithVendorError(c, err) {
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "countries": countries})
}

func orderJSON(order *domain.Order) gin.H {
	item := gin.H{
		"orderId":     order.ID,
		"phoneNumber": order.PhoneNumber,
		"pid":         order.PID,
		"country":     order.Country,
		"cost":        order.Cost.InexactFloat64(),
		"status":      order.Status,
		"createdAt":   order.CreatedAt,
	}
	if order.CodeReceived != nil {
		item["code"] = *order.CodeReceived
	}
	return item
}
