package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/ndanilin/virtnum/internal/domain"
	"github.com/ndanilin/virtnum/internal/logger"
	"github.com/ndanilin/virtnum/internal/service"
	"github.com/ndanilin/virtnum/internal/service/tokens"
	"github.com/ndanilin/virtnum/internal/transport/api/mocks"
	"github.com/ndanilin/virtnum/internal/transport/api/testutils"
	"github.com/ndanilin/virtnum/internal/transport/vendorapi/client"
	"github.com/stretchr/testify/suite"
)

type NumbersHandlerTestSuite struct {
	suite.Suite
	router           *gin.Engine
	mockOrderService *mocks.MockOrderServicer
	jwtSecret        []byte
}

func TestNumbersHandlerSuite(t *testing.T) {
	suite.Run(t, new(NumbersHandlerTestSuite))
}

func (s *NumbersHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.mockOrderService = mocks.NewMockOrderServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	s.router = New(RouterArgs{
		Logger:       logger.New(os.Stdout),
		OrderService: s.mockOrderService,
		JWTSecretKey: s.jwtSecret,
	})
}

func (s *NumbersHandlerTestSuite) userToken(userID int64) string {
	token, err := tokens.GenerateUserJWT(userID, time.Hour, s.jwtSecret)
	s.Require().NoError(err)
	return token
}

// decodeBody декодирует конверт ответа в мапу.
func (s *NumbersHandlerTestSuite) decodeBody(resp *http.Response) map[string]any {
	defer resp.Body.Close() //nolint:errcheck
	var body map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func (s *NumbersHandlerTestSuite) TestRequestNumber() {
	var currentUserID int64 = 1
	jwtToken := s.userToken(currentUserID)

	order := &domain.Order{
		ID:          10,
		UserID:      currentUserID,
		PhoneNumber: "201112223344",
		PID:         "1001",
		Country:     "EG",
		Cost:        decimal.NewFromInt(1),
		Status:      domain.OrderStatusPending,
	}

	// Моки
	s.mockOrderService.EXPECT().
		RequestNumber(gomock.Any(), currentUserID, "EG", "1001").
		Return(order, nil).Times(1)
	s.mockOrderService.EXPECT().
		RequestNumber(gomock.Any(), currentUserID, "EG", "broke").
		Return(nil, domain.ErrNotEnoughBalance).Times(1)
	s.mockOrderService.EXPECT().
		RequestNumber(gomock.Any(), currentUserID, "EG", "dup").
		Return(nil, domain.NewDuplicateOrderError(order)).Times(1)
	s.mockOrderService.EXPECT().
		RequestNumber(gomock.Any(), currentUserID, "EG", "rejected").
		Return(nil, client.NewAPIError(405, "no numbers available")).Times(1)
	s.mockOrderService.EXPECT().
		RequestNumber(gomock.Any(), currentUserID, "EG", "down").
		Return(nil, client.ErrUnavailable).Times(1)

	cases := []struct {
		name        string
		pid         string
		jwtToken    string
		wantStatus  int
		wantSuccess bool
	}{
		{name: "all ok", pid: "1001", jwtToken: jwtToken, wantStatus: http.StatusOK, wantSuccess: true},
		{name: "not enough balance", pid: "broke", jwtToken: jwtToken, wantStatus: http.StatusPaymentRequired},
		{name: "duplicate pending order", pid: "dup", jwtToken: jwtToken, wantStatus: http.StatusConflict},
		{name: "vendor rejected", pid: "rejected", jwtToken: jwtToken, wantStatus: http.StatusBadRequest},
		{name: "vendor down", pid: "down", jwtToken: jwtToken, wantStatus: http.StatusBadGateway},
		{name: "not authorized", pid: "1001", wantStatus: http.StatusUnauthorized},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			payload, marshalErr := json.Marshal(gin.H{"country": "EG", "pid": t.pid})
			s.Require().NoError(marshalErr)

			opts := []func(*testutils.RequestOptions){
				testutils.WithHeader("Content-Type", "application/json"),
			}
			if t.jwtToken != "" {
				opts = append(opts, testutils.WithHeader("Authorization", "Bearer "+t.jwtToken))
			}

			resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPost,
				URL:    RouteGroup + NumbersRoute,
				Body:   bytes.NewReader(payload),
			}, opts...)
			s.Require().NoError(reqErr)

			s.Equal(t.wantStatus, resp.StatusCode)
			body := s.decodeBody(resp)
			s.Equal(t.wantSuccess, body["success"])

			if t.wantSuccess {
				s.Equal(order.PhoneNumber, body["phoneNumber"])
			}
		})
	}
}

func (s *NumbersHandlerTestSuite) TestGetCode() {
	var currentUserID int64 = 1
	jwtToken := s.userToken(currentUserID)
	code := "778899"

	s.mockOrderService.EXPECT().
		PollAndSettle(gomock.Any(), currentUserID, "201112223344", "wait").
		Return(&service.PollResult{Outcome: service.PollNotReady}, nil).Times(1)
	s.mockOrderService.EXPECT().
		PollAndSettle(gomock.Any(), currentUserID, "201112223344", "settle").
		Return(&service.PollResult{Outcome: service.PollSettled, Code: code}, nil).Times(1)
	s.mockOrderService.EXPECT().
		PollAndSettle(gomock.Any(), currentUserID, "201112223344", "done").
		Return(&service.PollResult{Outcome: service.PollAlreadyFinalized, Code: code}, nil).Times(1)
	s.mockOrderService.EXPECT().
		PollAndSettle(gomock.Any(), currentUserID, "201112223344", "broke").
		Return(&service.PollResult{Outcome: service.PollUnsettled, Code: code}, nil).Times(1)

	cases := []struct {
		name        string
		pid         string
		wantSuccess bool
		wantCode    string
	}{
		{name: "code not ready", pid: "wait", wantSuccess: false},
		{name: "settled", pid: "settle", wantSuccess: true, wantCode: code},
		{name: "already finalized", pid: "done", wantSuccess: true, wantCode: code},
		{name: "unsettled", pid: "broke", wantSuccess: true, wantCode: code},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			url := fmt.Sprintf("%s%s?phoneNumber=%s&pid=%s", RouteGroup, NumberCodeRoute, "201112223344", t.pid)
			resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodGet,
				URL:    url,
			}, testutils.WithHeader("Authorization", "Bearer "+jwtToken))
			s.Require().NoError(reqErr)

			s.Equal(http.StatusOK, resp.StatusCode)
			body := s.decodeBody(resp)
			s.Equal(t.wantSuccess, body["success"])
			if t.wantCode != "" {
				s.Equal(t.wantCode, body["code"])
			}
		})
	}
}

func (s *NumbersHandlerTestSuite) TestBlacklist() {
	var currentUserID int64 = 1
	jwtToken := s.userToken(currentUserID)

	s.mockOrderService.EXPECT().
		Blacklist(gomock.Any(), currentUserID, "201112223344", "1001").
		Return(nil).Times(1)

	payload, marshalErr := json.Marshal(gin.H{"phoneNumber": "201112223344", "pid": "1001"})
	s.Require().NoError(marshalErr)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + BlacklistRoute,
		Body:   bytes.NewReader(payload),
	},
		testutils.WithHeader("Content-Type", "application/json"),
		testutils.WithHeader("Authorization", "Bearer "+jwtToken),
	)
	s.Require().NoError(reqErr)

	s.Equal(http.StatusOK, resp.StatusCode)
	body := s.decodeBody(resp)
	s.Equal(true, body["success"])
}

func (s *NumbersHandlerTestSuite) TestHistory() {
	var currentUserID int64 = 1
	jwtToken := s.userToken(currentUserID)
	code := "778899"

	orders := []domain.Order{
		{
			ID:           11,
			UserID:       currentUserID,
			PhoneNumber:  "201112223355",
			PID:          "1001",
			Cost:         decimal.NewFromInt(1),
			Status:       domain.OrderStatusReceived,
			CodeReceived: &code,
		},
		{
			ID:          10,
			UserID:      currentUserID,
			PhoneNumber: "201112223344",
			PID:         "1001",
			Cost:        decimal.NewFromInt(1),
			Status:      domain.OrderStatusPending,
		},
	}

	s.mockOrderService.EXPECT().
		GetByUserID(gomock.Any(), currentUserID).
		Return(orders, nil).Times(1)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + HistoryRoute,
	}, testutils.WithHeader("Authorization", "Bearer "+jwtToken))
	s.Require().NoError(reqErr)

	s.Equal(http.StatusOK, resp.StatusCode)
	body := s.decodeBody(resp)
	s.Equal(true, body["success"])

	list, ok := body["orders"].([]any)
	s.Require().True(ok)
	s.Require().Len(list, 2)

	first, ok := list[0].(map[string]any)
	s.Require().True(ok)
	s.Equal(code, first["code"])
	s.Equal(string(domain.OrderStatusReceived), first["status"])

	second, ok := list[1].(map[string]any)
	s.Require().True(ok)
	s.NotContains(second, "code")
	s.Equal(string(domain.OrderStatusPending), second["status"])
}

func (s *NumbersHandlerTestSuite) TestCountries() {
	var currentUserID int64 = 1
	jwtToken := s.userToken(currentUserID)
	payload := `[{"country":"EG","num":42}]`

	s.mockOrderService.EXPECT().
		Countries(gomock.Any(), "1001").
		Return(json.RawMessage(payload), nil).Times(1)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + CountriesRoute + "?pid=1001",
	}, testutils.WithHeader("Authorization", "Bearer "+jwtToken))
	s.Require().NoError(reqErr)

	s.Equal(http.StatusOK, resp.StatusCode)

	defer resp.Body.Close() //nolint:errcheck
	var body struct {
		Success   bool            `json:"success"`
		Countries json.RawMessage `json:"countries"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&body))
	s.True(body.Success)
	s.JSONEq(payload, string(body.Countries))
}
