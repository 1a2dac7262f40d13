package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Giorgio223/ton-pvp-app/pkg/middleware"
	"github.com/Giorgio223/ton-pvp-app/pkg/service"
)

type Options struct {
	AdminToken  string
	CORSOrigins []string
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Logger  *logrus.Logger
}

type Handler struct {
	service *service.Service
	opts    Options
}

func NewHandler(service *service.Service, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Handler{
		service: service,
		opts:    opts,
	}
}

func (h *Handler) InitRoute() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(h.opts.Logger))

	if len(h.opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     h.opts.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", middleware.WalletHeader, middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
			AllowCredentials: true,
		}))
	}

	router.GET("/health", h.Health)
	if h.opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.opts.Metrics))
	}

	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.GET("/me", middleware.WalletAuth(), h.GetMe)
	}

	api := router.Group("/api")
	{
		wallet := api.Group("/wallet", middleware.WalletAuth())
		{
			wallet.GET("/balance", h.GetBalance)
			wallet.GET("/ledger", h.GetLedger)
			wallet.POST("/deposits", h.CreateDeposit)
			wallet.GET("/deposits", h.ListDeposits)
			wallet.POST("/withdrawals", h.CreateWithdrawal)
			wallet.GET("/withdrawals", h.ListMyWithdrawals)
		}
	}

	admin := router.Group("/admin", middleware.AdminAuth(h.opts.AdminToken))
	{
		admin.GET("/withdrawals", h.ListWithdrawals)
		admin.POST("/withdrawals/:id/approve", h.ApproveWithdrawal)
		admin.POST("/withdrawals/:id/reject", h.RejectWithdrawal)
		admin.POST("/deposits/:id/confirm", h.ConfirmDeposit)
		admin.POST("/game/stake", h.ChargeStake)
		admin.POST("/game/reward", h.CreditReward)
	}
	return router
}

func (h *Handler) Health(c *gin.Context) {
	wrapOkJSON(c, map[string]interface{}{
		"status": "ok",
	})
}
