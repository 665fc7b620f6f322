package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/roomledger/internal/audit"
	auditdomain "github.com/smallbiznis/roomledger/internal/audit/domain"
	"github.com/smallbiznis/roomledger/internal/authorization"
	"github.com/smallbiznis/roomledger/internal/availability"
	availabilitydomain "github.com/smallbiznis/roomledger/internal/availability/domain"
	"github.com/smallbiznis/roomledger/internal/cancellation"
	cancellationdomain "github.com/smallbiznis/roomledger/internal/cancellation/domain"
	"github.com/smallbiznis/roomledger/internal/config"
	"github.com/smallbiznis/roomledger/internal/hotel"
	"github.com/smallbiznis/roomledger/internal/inventory"
	inventorydomain "github.com/smallbiznis/roomledger/internal/inventory/domain"
	"github.com/smallbiznis/roomledger/internal/observability"
	obslogger "github.com/smallbiznis/roomledger/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/roomledger/internal/observability/metrics"
	obstracing "github.com/smallbiznis/roomledger/internal/observability/tracing"
	"github.com/smallbiznis/roomledger/internal/tariff"
	tariffdomain "github.com/smallbiznis/roomledger/internal/tariff/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	authorization.Module,
	audit.Module,
	hotel.Module,
	inventory.Module,
	availability.Module,
	tariff.Module,
	cancellation.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
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

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	addr := strings.TrimSpace(cfg.HTTPAddr)
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", addr))
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
	engine          *gin.Engine
	cfg             config.Config
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	inventorySvc    inventorydomain.Service
	availabilitySvc availabilitydomain.Service
	tariffSvc       tariffdomain.Service
	cancellationSvc cancellationdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	InventorySvc    inventorydomain.Service
	AvailabilitySvc availabilitydomain.Service
	TariffSvc       tariffdomain.Service
	CancellationSvc cancellationdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		inventorySvc:    p.InventorySvc,
		availabilitySvc: p.AvailabilitySvc,
		tariffSvc:       p.TariffSvc,
		cancellationSvc: p.CancellationSvc,
	}
	svc.registerRoutes()
	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1", ActorContext())

	// -------- Booking workflow --------
	roomTypes := v1.Group("/room-types/:id")
	roomTypes.GET("/availability", s.authorize(authorization.ObjectAvailability, authorization.ActionView), s.CheckAvailability)
	roomTypes.GET("/calendar", s.authorize(authorization.ObjectCalendar, authorization.ActionView), s.GetCalendarRange)
	roomTypes.GET("/calendar/:date", s.authorize(authorization.ObjectCalendar, authorization.ActionView), s.GetCalendarDay)
	roomTypes.POST("/reservations", s.authorize(authorization.ObjectReservation, authorization.ActionReserve), s.Reserve)
	roomTypes.POST("/releases", s.authorize(authorization.ObjectReservation, authorization.ActionRelease), s.Release)
	roomTypes.GET("/price", s.authorize(authorization.ObjectTariff, authorization.ActionQuote), s.CalculatePrice)

	hotels := v1.Group("/hotels/:id")
	hotels.GET("/refund", s.authorize(authorization.ObjectCancellation, authorization.ActionQuote), s.ResolveRefund)
	hotels.POST("/refund-quotes", s.authorize(authorization.ObjectCancellation, authorization.ActionQuote), s.QuoteRefund)

	// -------- Administration --------
	roomTypes.PUT("/calendar/:date", s.authorize(authorization.ObjectCalendar, authorization.ActionManage), s.UpsertCalendarDay)
	roomTypes.DELETE("/calendar/:date", s.authorize(authorization.ObjectCalendar, authorization.ActionManage), s.DeleteCalendarDay)
	roomTypes.POST("/blocks", s.authorize(authorization.ObjectCalendar, authorization.ActionManage), s.Block)
	roomTypes.POST("/unblocks", s.authorize(authorization.ObjectCalendar, authorization.ActionManage), s.Unblock)
	roomTypes.POST("/calendar/initialize", s.authorize(authorization.ObjectCalendar, authorization.ActionInitialize), s.InitializeCalendar)
	roomTypes.GET("/tariff-rules", s.authorize(authorization.ObjectTariff, authorization.ActionManage), s.ListTariffRules)
	roomTypes.POST("/tariff-rules", s.authorize(authorization.ObjectTariff, authorization.ActionManage), s.CreateTariffRule)

	hotels.GET("/cancellation-tiers", s.authorize(authorization.ObjectCancellation, authorization.ActionManage), s.ListCancellationTiers)
	hotels.POST("/cancellation-tiers", s.authorize(authorization.ObjectCancellation, authorization.ActionManage), s.CreateCancellationTier)

	v1.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
