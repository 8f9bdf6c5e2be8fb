package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/learnlyhq/learnly/internal/account"
	accountdomain "github.com/learnlyhq/learnly/internal/account/domain"
	"github.com/learnlyhq/learnly/internal/catalog"
	catalogdomain "github.com/learnlyhq/learnly/internal/catalog/domain"
	"github.com/learnlyhq/learnly/internal/config"
	"github.com/learnlyhq/learnly/internal/enrollment"
	enrollmentdomain "github.com/learnlyhq/learnly/internal/enrollment/domain"
	"github.com/learnlyhq/learnly/internal/observability"
	obsmiddleware "github.com/learnlyhq/learnly/internal/observability/logger"
	obsmetrics "github.com/learnlyhq/learnly/internal/observability/metrics"
	obstracing "github.com/learnlyhq/learnly/internal/observability/tracing"
	"github.com/learnlyhq/learnly/internal/payment"
	paymentdomain "github.com/learnlyhq/learnly/internal/payment/domain"
	"github.com/learnlyhq/learnly/internal/providers/email"
	"github.com/learnlyhq/learnly/internal/ratelimit"
	"github.com/learnlyhq/learnly/internal/referral"
	referraldomain "github.com/learnlyhq/learnly/internal/referral/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	account.Module,
	catalog.Module,
	email.Module,
	enrollment.Module,
	referral.Module,
	payment.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine         *gin.Engine
	cfg            config.Config
	db             *gorm.DB
	genID          *snowflake.Node
	accountSvc     accountdomain.Service
	catalogSvc     catalogdomain.Service
	enrollmentSvc  enrollmentdomain.Service
	referralSvc    referraldomain.Service
	paymentSvc     paymentdomain.Service
	paymentLogs    paymentdomain.LogReader
	webhookLimiter *ratelimit.TokenBucket
	obsMetrics     *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	DB             *gorm.DB
	GenID          *snowflake.Node
	AccountSvc     accountdomain.Service
	CatalogSvc     catalogdomain.Service
	EnrollmentSvc  enrollmentdomain.Service
	ReferralSvc    referraldomain.Service
	PaymentSvc     paymentdomain.Service
	PaymentLogs    paymentdomain.LogReader
	WebhookLimiter *ratelimit.TokenBucket `optional:"true"`
	ObsMetrics     *obsmetrics.Metrics    `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		db:             p.DB,
		genID:          p.GenID,
		accountSvc:     p.AccountSvc,
		catalogSvc:     p.CatalogSvc,
		enrollmentSvc:  p.EnrollmentSvc,
		referralSvc:    p.ReferralSvc,
		paymentSvc:     p.PaymentSvc,
		paymentLogs:    p.PaymentLogs,
		webhookLimiter: p.WebhookLimiter,
		obsMetrics:     p.ObsMetrics,
	}

	svc.registerWebhookRoutes()
	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/payments/:provider", s.HandlePaymentWebhook)
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.GET("/courses/:id", s.HandleGetCourse)
	api.GET("/accounts/:id", s.HandleGetAccount)
	api.GET("/accounts/:id/referrals", s.HandleListReferralCommissions)
	api.GET("/payments/events/:provider/:event_id/logs", s.HandleListEventLogs)
}
