package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	billingdomain "github.com/smallbiznis/billingengine/internal/billing/domain"
	clientbillingdomain "github.com/smallbiznis/billingengine/internal/clientbilling/domain"
	"github.com/smallbiznis/billingengine/internal/config"
	invoicedomain "github.com/smallbiznis/billingengine/internal/invoice/domain"
	ledgerdomain "github.com/smallbiznis/billingengine/internal/ledger/domain"
	"github.com/smallbiznis/billingengine/internal/observability"
	obsmiddleware "github.com/smallbiznis/billingengine/internal/observability/logger"
	obstracing "github.com/smallbiznis/billingengine/internal/observability/tracing"
	timeentrydomain "github.com/smallbiznis/billingengine/internal/timeentry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server started", zap.String("addr", cfg.HTTPAddr))
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
	engine *gin.Engine
	cfg    config.Config

	billingSvc       billingdomain.Service
	invoiceSvc       invoicedomain.Service
	ledgerSvc        ledgerdomain.Service
	timeEntrySvc     timeentrydomain.Service
	clientBillingSvc clientbillingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	BillingSvc       billingdomain.Service
	InvoiceSvc       invoicedomain.Service
	LedgerSvc        ledgerdomain.Service
	TimeEntrySvc     timeentrydomain.Service
	ClientBillingSvc clientbillingdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		billingSvc:       p.BillingSvc,
		invoiceSvc:       p.InvoiceSvc,
		ledgerSvc:        p.LedgerSvc,
		timeEntrySvc:     p.TimeEntrySvc,
		clientBillingSvc: p.ClientBillingSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Billing --------
	api.POST("/billing/calculate", s.CalculateBilling)

	// -------- Invoices --------
	api.POST("/invoices/:invoice_id/recalculate", RequireIDParams("invoice_id"), s.RecalculateInvoice)
	api.GET("/invoices/:invoice_id/transactions", RequireIDParams("invoice_id"), s.ListInvoiceTransactions)

	// -------- Companies --------
	company := api.Group("/companies/:company_id", RequireIDParams("company_id"))
	{
		company.POST("/time-entries/rollover", s.RolloverTimeEntries)

		company.GET("/billing/plan", s.GetClientBillingPlan)
		company.GET("/billing/invoices", s.ListClientInvoices)
		company.GET("/billing/usage", s.GetClientCurrentUsage)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
