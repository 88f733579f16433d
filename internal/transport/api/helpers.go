package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ndanilin/virtnum/internal/transport/api/middlewares"
	"github.com/ndanilin/virtnum/internal/transport/vendorapi/client"
)

// getUserIDFromContext берет из контекста gin ID текущего юзера. ID устанавливается в
// middlewares.AuthRequired. В случае, если значения в контексте нет или ошибка утверждения типа -
// вернется 0.
func getUserIDFromContext(c *gin.Context) int64 {
	userIDStr, exist := c.Get(middlewares.CurrentUserIDKey)
	if !exist {
		return 0
	}
	userID, ok := userIDStr.(int64)
	if !ok {
		return 0
	}
	return userID
}

// abortWithVendorError мапит ошибки шлюза вендора на http статусы: бизнес-отказ вендора - 400
// с его сообщением, транспортный сбой - 502 (ретраить решает клиент). Возвращает false если
// ошибка не вендорская.
func abortWithVendorError(c *gin.Context, err error) bool {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		_ = c.AbortWithError(http.StatusBadRequest, errors.New(apiErr.Msg)).SetType(gin.ErrorTypePublic)
		return true
	}
	if errors.Is(err, client.ErrUnavailable) {
		_ = c.AbortWithError(http.StatusBadGateway, err).SetType(gin.ErrorTypePrivate)
		return true
	}
	return false
}
