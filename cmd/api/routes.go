package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vefify-quiz/internal/config"
	"github.com/yourusername/vefify-quiz/internal/domain/entity"
	"github.com/yourusername/vefify-quiz/internal/handler"
	"github.com/yourusername/vefify-quiz/internal/middleware"
	"github.com/yourusername/vefify-quiz/pkg/auth"
	"github.com/yourusername/vefify-quiz/pkg/monitoring"
)

type routerDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	metrics     *monitoring.Metrics
	rateLimiter *middleware.RateLimiter
	authMW      *middleware.AuthMiddleware

	auth         *handler.AuthHandler
	campaigns    *handler.CampaignHandler
	questions    *handler.QuestionHandler
	gifts        *handler.GiftHandler
	participants *handler.ParticipantHandler
	analytics    *handler.AnalyticsHandler
	public       *handler.PublicHandler
	ws           *handler.WSHandler
}

func setupRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(d.logger), d.metrics.Middleware())

	// В production не доверяем прокси-заголовкам (защита от IP spoofing в лимитере)
	if gin.Mode() == gin.ReleaseMode {
		if err := router.SetTrustedProxies(nil); err != nil {
			d.logger.Warn("[Main] Не удалось настроить доверенные прокси", zap.Error(err))
		}
	}

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", auth.NonceHeader, handler.SessionTokenHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	if containsWildcard(d.cfg.Server.AllowedOrigins) {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = d.cfg.Server.AllowedOrigins
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	router.GET("/metrics", d.metrics.Handler())

	api := router.Group("/api")
	registerPublicRoutes(api, d)
	registerAdminRoutes(api, d)
	return router
}

func registerPublicRoutes(api *gin.RouterGroup, d routerDeps) {
	public := api.Group("/public")
	if d.cfg.RateLimit.Enabled {
		public.Use(d.rateLimiter.LimitByIP())
	}

	public.GET("/by-slug/:slug", d.public.GetCampaignBySlug)
	campaign := public.Group("/campaigns/:id", middleware.ExtractUintParam("id", handler.CampaignIDKey))
	{
		campaign.GET("", d.public.GetCampaign)
		campaign.POST("/check-phone", d.public.CheckPhone)
		campaign.POST("/register", d.public.Register)
	}

	quiz := public.Group("/quiz")
	{
		quiz.POST("/start", d.public.StartQuiz)
		quiz.POST("/submit", d.public.SubmitQuiz)
		quiz.GET("/result", d.public.Result)
	}

	public.GET("/locations/provinces", d.public.Provinces)
	public.GET("/locations/provinces/:province/districts", d.public.Districts)
	public.GET("/gifts/:code/qr", d.public.GiftQR)
}

func registerAdminRoutes(api *gin.RouterGroup, d routerDeps) {
	admin := api.Group("/admin")

	login := admin.Group("/auth")
	if d.cfg.RateLimit.Enabled {
		login.Use(d.rateLimiter.LimitByIP())
	}
	login.POST("/login", d.auth.Login)

	// Браузерный WebSocket не передает заголовки: токен принимается из ?token=
	admin.GET("/ws", d.authMW.RequireAuth(true), d.authMW.RequireCapability(entity.CapViewAnalytics), d.ws.HandleConnection)

	authed := admin.Group("", d.authMW.RequireAuth(false), d.authMW.RequireNonce())
	authed.GET("/me", d.auth.Me)

	can := d.authMW.RequireCapability
	campaignID := middleware.ExtractUintParam("id", handler.CampaignIDKey)

	campaigns := authed.Group("/campaigns")
	{
		campaigns.GET("", can(entity.CapManageCampaigns), d.campaigns.ListCampaigns)
		campaigns.POST("", can(entity.CapManageCampaigns), d.campaigns.CreateCampaign)

		one := campaigns.Group("/:id", campaignID)
		one.GET("", can(entity.CapManageCampaigns), d.campaigns.GetCampaign)
		one.PUT("", can(entity.CapManageCampaigns), d.campaigns.UpdateCampaign)
		one.DELETE("", can(entity.CapManageCampaigns), d.campaigns.DeleteCampaign)
		one.POST("/duplicate", can(entity.CapManageCampaigns), d.campaigns.DuplicateCampaign)
		one.GET("/stats", can(entity.CapViewAnalytics), d.campaigns.Stats)
		one.GET("/analytics", can(entity.CapViewAnalytics), d.analytics.Summary)

		one.GET("/questions", can(entity.CapManageQuestions), d.questions.ListQuestions)
		one.POST("/questions", can(entity.CapManageQuestions), d.questions.CreateQuestion)
		one.PUT("/questions/reorder", can(entity.CapManageQuestions), d.questions.ReorderQuestions)

		one.GET("/gifts", can(entity.CapManageGifts), d.gifts.ListGifts)
		one.POST("/gifts", can(entity.CapManageGifts), d.gifts.CreateGift)
		one.GET("/gifts/inventory", can(entity.CapManageGifts), d.gifts.Inventory)
		one.GET("/awards", can(entity.CapManageGifts), d.gifts.ListAwards)

		one.GET("/participants", can(entity.CapManageParticipants), d.participants.ListParticipants)
		one.GET("/participants/export", can(entity.CapExportData), d.participants.Export)
	}

	questions := authed.Group("/questions/:id", can(entity.CapManageQuestions), middleware.ExtractUintParam("id", handler.QuestionIDKey))
	{
		questions.GET("", d.questions.GetQuestion)
		questions.PUT("", d.questions.UpdateQuestion)
		questions.DELETE("", d.questions.DeleteQuestion)
		questions.POST("/duplicate", d.questions.DuplicateQuestion)
	}

	gifts := authed.Group("/gifts/:id", can(entity.CapManageGifts), middleware.ExtractUintParam("id", handler.GiftIDKey))
	{
		gifts.GET("", d.gifts.GetGift)
		gifts.PUT("", d.gifts.UpdateGift)
		gifts.DELETE("", d.gifts.DeleteGift)
		gifts.POST("/duplicate", d.gifts.DuplicateGift)
	}

	awards := authed.Group("/awards", can(entity.CapManageGifts))
	{
		awards.GET("/:code", d.gifts.GetAward)
		awards.POST("/claim", d.gifts.ClaimAward)
	}

	participants := authed.Group("/participants", can(entity.CapManageParticipants))
	{
		participants.POST("/bulk-delete", d.participants.BulkDelete)
		participants.GET("/:id", middleware.ExtractUintParam("id", handler.ParticipantIDKey), d.participants.GetParticipant)
		participants.POST("/:id/rescore", middleware.ExtractUintParam("id", handler.ParticipantIDKey), d.participants.Rescore)
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
