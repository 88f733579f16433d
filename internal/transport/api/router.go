package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ndanilin/virtnum/internal/transport/api/middlewares"
	"github.com/sirupsen/logrus"
)

const (
	DefaultServiceTimeout = 15 * time.Second
)

const (
	RouteGroup          = "/api"
	RegisterRoute       = "/user/register"
	LoginRoute          = "/user/login"
	CountriesRoute      = "/countries"
	NumbersRoute        = "/numbers"
	NumberCodeRoute     = "/numbers/code"
	BlacklistRoute      = "/numbers/blacklist"
	BalanceRoute        = "/balance"
	HistoryRoute        = "/history"
	BalanceCreditRoute  = "/balance/credit"
	AdminCreditRoute    = "/admin/credit"
)

type RouterArgs struct {
	Logger         *logrus.Logger
	UserService    UserServicer
	OrderService   OrderServicer
	BalanceService BalanceServicer
	JWTSecretKey   []byte
}

func New(args RouterArgs) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	authHandler := NewAuthHandler(args.UserService)
	numbersHandler := NewNumbersHandler(args.OrderService)
	balanceHandler := NewBalanceHandler(args.BalanceService)

	api := r.Group(RouteGroup)

	api.POST(RegisterRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Register)
	api.POST(LoginRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Login)

	// админский маршрут защищен секретом в теле запроса, не JWT токеном.
	api.POST(AdminCreditRoute, balanceHandler.AdminCredit)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного пользователя.
	api.GET(CountriesRoute, numbersHandler.Countries)
	api.POST(NumbersRoute, numbersHandler.RequestNumber)
	api.GET(NumberCodeRoute, numbersHandler.GetCode)
	api.POST(BlacklistRoute, numbersHandler.Blacklist)

	api.GET(BalanceRoute, balanceHandler.Index)
	api.GET(HistoryRoute, numbersHandler.History)
	api.POST(BalanceCreditRoute, balanceHandler.Credit)
	return r
}
