package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/logger"
	"github.com/ndanilin/virtnum/internal/service/tokens"
	"github.com/ndanilin/virtnum/internal/transport/api/mocks"
	"github.com/ndanilin/virtnum/internal/transport/api/testutils"
	"github.com/stretchr/testify/suite"
)

type BalanceHandlerTestSuite struct {
	suite.Suite
	router             *gin.Engine
	mockBalanceService *mocks.MockBalanceServicer
	jwtSecret          []byte
}

func TestBalanceHandlerSuite(t *testing.T) {
	suite.Run(t, new(BalanceHandlerTestSuite))
}

func (s *BalanceHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.mockBalanceService = mocks.NewMockBalanceServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	s.router = New(RouterArgs{
		Logger:         logger.New(os.Stdout),
		BalanceService: s.mockBalanceService,
		JWTSecretKey:   s.jwtSecret,
	})
}

func (s *BalanceHandlerTestSuite) userToken(userID int64) string {
	token, err := tokens.GenerateUserJWT(userID, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
	return token
}

func (s *BalanceHandlerTestSuite) decodeBody(resp *http.Response) map[string]any {
	defer resp.Body.Close() //nolint:errcheck
	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (s *BalanceHandlerTestSuite) TestIndex() {
	var currentUserID int64 = 1
	jwtToken := s.userToken(currentUserID)

	s.mockBalanceService.EXPECT().
		GetBalance(gomock.Any(), currentUserID).
		Return(decimal.NewFromFloat(3.5), nil).Times(1)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + BalanceRoute,
	}, testutils.WithHeader("Authorization", "Bearer "+jwtToken))
	s.Require().NoError(reqErr)

	s.Equal(http.StatusOK, resp.StatusCode)
	body := s.decodeBody(resp)
	s.Equal(true, body["success"])
	s.InDelta(3.5, body["balance"], 0.0001)
}

func (s *BalanceHandlerTestSuite) TestCredit() {
	var currentUserID int64 = 1
	jwtToken := s.userToken(currentUserID)

	s.mockBalanceService.EXPECT().
		Credit(gomock.Any(), currentUserID, decimal.NewFromFloat(10.0)).
		Return(decimal.NewFromFloat(11.0), nil).Times(1)

	cases := []struct {
		name       string
		payload    gin.H
		wantStatus int
	}{
		{name: "all ok", payload: gin.H{"amount": 10.0}, wantStatus: http.StatusOK},
		{name: "negative amount", payload: gin.H{"amount": -5.0}, wantStatus: http.StatusBadRequest},
		{name: "missing amount", payload: gin.H{}, wantStatus: http.StatusBadRequest},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			payload, marshalErr := json.Marshal(t.payload)
			s.Require().NoError(marshalErr)

			resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPost,
				URL:    RouteGroup + BalanceCreditRoute,
				Body:   bytes.NewReader(payload),
			},
				testutils.WithHeader("Content-Type", "application/json"),
				testutils.WithHeader("Authorization", "Bearer "+jwtToken),
			)
			s.Require().NoError(reqErr)

			s.Equal(t.wantStatus, resp.StatusCode)
			body := s.decodeBody(resp)
			s.Equal(t.wantStatus == http.StatusOK, body["success"])
		})
	}
}

func (s *BalanceHandlerTestSuite) TestAdminCredit() {
	adminKey := "valid admin key"
	var targetUserID int64 = 42

	// Моки. Админская ручка работает без JWT - решает только секрет в теле запроса.
	s.mockBalanceService.EXPECT().
		AdminCredit(gomock.Any(), adminKey, targetUserID, decimal.NewFromFloat(100.0)).
		Return(decimal.NewFromFloat(100.0), nil).Times(1)
	s.mockBalanceService.EXPECT().
		AdminCredit(gomock.Any(), "wrong key", targetUserID, decimal.NewFromFloat(100.0)).
		Return(decimal.Zero, domain.ErrUnauthorized).Times(1)
	s.mockBalanceService.EXPECT().
		AdminCredit(gomock.Any(), adminKey, int64(999), decimal.NewFromFloat(100.0)).
		Return(decimal.Zero, domain.ErrRecordNotFound).Times(1)

	cases := []struct {
		name       string
		payload    gin.H
		wantStatus int
	}{
		{
			name:       "all ok",
			payload:    gin.H{"secretKey": adminKey, "userId": targetUserID, "amount": 100.0},
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong secret",
			payload:    gin.H{"secretKey": "wrong key", "userId": targetUserID, "amount": 100.0},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "unknown user",
			payload:    gin.H{"secretKey": adminKey, "userId": 999, "amount": 100.0},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "missing secret",
			payload:    gin.H{"userId": targetUserID, "amount": 100.0},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			payload, marshalErr := json.Marshal(t.payload)
			s.Require().NoError(marshalErr)

			resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPost,
				URL:    RouteGroup + AdminCreditRoute,
				Body:   bytes.NewReader(payload),
			}, testutils.WithHeader("Content-Type", "application/json"))
			s.Require().NoError(reqErr)

			s.Equal(t.wantStatus, resp.StatusCode)
			body := s.decodeBody(resp)
			s.Equal(t.wantStatus == http.StatusOK, body["success"])
			// Секрет не должен отражаться в ответе.
			s.NotContains(body, "secretKey")
		})
	}
}
