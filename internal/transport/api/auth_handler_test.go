package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"strings"
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
	"github.com/stretchr/testify/suite"
)

type AuthHandlerTestSuite struct {
	suite.Suite
	router          *gin.Engine
	mockUserService *mocks.MockUserServicer
	jwtSecret       []byte
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) SetupTest() {
	mockCtrl := gomock.NewController(s.T())

	s.mockUserService = mocks.NewMockUserServicer(mockCtrl)
	s.jwtSecret = []byte("super secret key")

	s.router = New(RouterArgs{
		Logger:       logger.New(os.Stdout),
		UserService:  s.mockUserService,
		JWTSecretKey: s.jwtSecret,
	})
}

func (s *AuthHandlerTestSuite) postJSON(route string, payload gin.H) *http.Response {
	body, marshalErr := json.Marshal(payload)
	s.Require().NoError(marshalErr)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + route,
		Body:   bytes.NewReader(body),
	}, testutils.WithHeader("Content-Type", "application/json"))
	s.Require().NoError(reqErr)
	return resp
}

func (s *AuthHandlerTestSuite) TestRegister() {
	validArgs := service.RegisterUserArgs{Username: "newUser", Password: "valid password"}
	dupArgs := service.RegisterUserArgs{Username: "existingUser", Password: "valid password"}

	createdUser := &domain.User{ID: 1, Username: validArgs.Username}

	s.mockUserService.EXPECT().
		Register(gomock.Any(), validArgs).
		Return(createdUser, "some.jwt.token", nil).Times(1)
	s.mockUserService.EXPECT().
		Register(gomock.Any(), dupArgs).
		Return(nil, "", domain.ErrDuplicateKey).Times(1)

	cases := []struct {
		name       string
		payload    gin.H
		wantStatus int
		wantToken  bool
	}{
		{
			name:       "all ok",
			payload:    gin.H{"login": validArgs.Username, "password": validArgs.Password},
			wantStatus: http.StatusOK,
			wantToken:  true,
		},
		{
			name:       "duplicate login",
			payload:    gin.H{"login": dupArgs.Username, "password": dupArgs.Password},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "password too short",
			payload:    gin.H{"login": "someUser", "password": "123"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "login too long",
			payload:    gin.H{"login": strings.Repeat("a", 16), "password": "valid password"},
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			resp := s.postJSON(RegisterRoute, t.payload)
			defer resp.Body.Close() //nolint:errcheck

			s.Equal(t.wantStatus, resp.StatusCode)

			if t.wantToken {
				s.Equal("Bearer some.jwt.token", resp.Header.Get("Authorization"))
			} else {
				s.Empty(resp.Header.Get("Authorization"))
			}
		})
	}
}

func (s *AuthHandlerTestSuite) TestRegisterRejectsAuthorized() {
	// Авторизованный юзер не может регистрироваться повторно.
	jwtToken, tokenErr := tokens.GenerateUserJWT(1, time.Hour, s.jwtSecret)
	s.Require().NoError(tokenErr)

	s.mockUserService.EXPECT().Register(gomock.Any(), gomock.Any()).Times(0)

	body, marshalErr := json.Marshal(gin.H{"login": "newUser", "password": "valid password"})
	s.Require().NoError(marshalErr)

	resp, reqErr := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + RegisterRoute,
		Body:   bytes.NewReader(body),
	},
		testutils.WithHeader("Content-Type", "application/json"),
		testutils.WithHeader("Authorization", "Bearer "+jwtToken),
	)
	s.Require().NoError(reqErr)
	defer resp.Body.Close() //nolint:errcheck

	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *AuthHandlerTestSuite) TestLogin() {
	validArgs := service.LoginUserArgs{Username: "someUser", Password: "valid password"}
	wrongArgs := service.LoginUserArgs{Username: "someUser", Password: "wrong password"}

	user := &domain.User{ID: 1, Username: validArgs.Username, Balance: decimal.NewFromInt(5)}

	s.mockUserService.EXPECT().
		Login(gomock.Any(), validArgs).
		Return(user, "some.jwt.token", nil).Times(1)
	s.mockUserService.EXPECT().
		Login(gomock.Any(), wrongArgs).
		Return(nil, "", domain.ErrPasswordMissMatch).Times(1)

	cases := []struct {
		name       string
		payload    gin.H
		wantStatus int
		wantToken  bool
	}{
		{
			name:       "all ok",
			payload:    gin.H{"login": validArgs.Username, "password": validArgs.Password},
			wantStatus: http.StatusOK,
			wantToken:  true,
		},
		{
			name:       "wrong password",
			payload:    gin.H{"login": wrongArgs.Username, "password": wrongArgs.Password},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, t := range cases {
		s.Run(t.name, func() {
			resp := s.postJSON(LoginRoute, t.payload)
			defer resp.Body.Close() //nolint:errcheck

			s.Equal(t.wantStatus, resp.StatusCode)

			if t.wantToken {
				s.Equal("Bearer some.jwt.token", resp.Header.Get("Authorization"))
			}
		})
	}
}
