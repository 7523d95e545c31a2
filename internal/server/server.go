package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/montessori/ecole/internal/booking/domain"
	"github.com/montessori/ecole/internal/config"
	familydomain "github.com/montessori/ecole/internal/family/domain"
	invoicedomain "github.com/montessori/ecole/internal/invoice/domain"
	justificatifdomain "github.com/montessori/ecole/internal/justificatif/domain"
	"github.com/montessori/ecole/internal/observability"
	obsmiddleware "github.com/montessori/ecole/internal/observability/logger"
	obsmetrics "github.com/montessori/ecole/internal/observability/metrics"
	obstracing "github.com/montessori/ecole/internal/observability/tracing"
	preinscriptiondomain "github.com/montessori/ecole/internal/preinscription/domain"
	reinscriptiondomain "github.com/montessori/ecole/internal/reinscription/domain"
	tariffdomain "github.com/montessori/ecole/internal/tariff/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
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
	r.Use(httpMetrics.GinMiddleware())
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

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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
	engine            *gin.Engine
	tariffSvc         tariffdomain.Service
	familySvc         familydomain.Service
	bookingSvc        bookingdomain.Service
	invoiceSvc        invoicedomain.Service
	reinscriptionSvc  reinscriptiondomain.Service
	preinscriptionSvc preinscriptiondomain.Service
	justificatifSvc   justificatifdomain.Service
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	TariffSvc         tariffdomain.Service
	FamilySvc         familydomain.Service
	BookingSvc        bookingdomain.Service
	InvoiceSvc        invoicedomain.Service
	ReinscriptionSvc  reinscriptiondomain.Service
	PreinscriptionSvc preinscriptiondomain.Service
	JustificatifSvc   justificatifdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		tariffSvc:         p.TariffSvc,
		familySvc:         p.FamilySvc,
		bookingSvc:        p.BookingSvc,
		invoiceSvc:        p.InvoiceSvc,
		reinscriptionSvc:  p.ReinscriptionSvc,
		preinscriptionSvc: p.PreinscriptionSvc,
		justificatifSvc:   p.JustificatifSvc,
	}

	svc.registerBillingRoutes()
	svc.registerFamilyRoutes()
	svc.registerReinscriptionRoutes()
	svc.registerPreinscriptionRoutes()
	svc.registerJustificatifRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerBillingRoutes() {
	api := s.engine.Group("/api/facturation")

	api.GET("/tarifs", s.ListTariffs)
	api.POST("/tarifs", s.CreateTariff)
	api.POST("/tarifs/copy", s.CopyTariffYear)
	api.GET("/tarifs/:id", s.GetTariff)
	api.PUT("/tarifs/:id", s.UpdateTariff)
	api.DELETE("/tarifs/:id", s.DeleteTariff)

	api.POST("/preview", s.PreviewInvoice)

	api.GET("/factures", s.ListInvoices)
	api.POST("/factures/generate", s.GenerateInvoice)
	api.POST("/factures/generate-month", s.GenerateMonthInvoices)
	api.GET("/factures/:id", s.GetInvoice)
	api.GET("/factures/:id/pdf", s.DownloadInvoicePDF)
	api.PUT("/factures/:id/statut", s.SetInvoiceStatus)
	api.POST("/factures/:id/lignes", s.AddInvoiceLine)
	api.PUT("/factures/:id/lignes/:lineId", s.UpdateInvoiceLine)
	api.DELETE("/factures/:id/lignes/:lineId", s.DeleteInvoiceLine)
	api.POST("/factures/:id/paiements", s.RecordInvoicePayment)
	api.DELETE("/factures/:id/paiements/:paymentId", s.DeleteInvoicePayment)
}

func (s *Server) registerFamilyRoutes() {
	api := s.engine.Group("/api/enfants")

	api.GET("/parents", s.ListParents)
	api.POST("/parents", s.CreateParent)
	api.GET("/parents/:id", s.GetParent)
	api.PUT("/parents/:id", s.UpdateParent)
	api.DELETE("/parents/:id", s.DeleteParent)

	api.GET("/inscriptions", s.ListEnrollments)
	api.GET("/a-reinscrire", s.ListChildrenAwaitingEnrollment)

	api.GET("", s.ListChildren)
	api.POST("", s.CreateChild)
	api.GET("/:id", s.GetChild)
	api.PUT("/:id", s.UpdateChild)
	api.DELETE("/:id", s.DeleteChild)

	api.GET("/:id/inscriptions", s.ListChildEnrollments)
	api.POST("/:id/inscriptions", s.EnrollChild)
	api.DELETE("/:id/inscriptions/:year", s.TerminateEnrollment)

	api.GET("/:id/reglement", s.GetRegulationSignature)
	api.POST("/:id/reglement", s.SignRegulation)

	meals := bookingHandlers{s: s, kind: bookingdomain.KindRepasMidi}
	api.GET("/:id/repas", meals.list)
	api.POST("/:id/repas", meals.book)
	api.DELETE("/:id/repas/:date", meals.cancel)

	afterSchool := bookingHandlers{s: s, kind: bookingdomain.KindPeriscolaire}
	api.GET("/:id/periscolaire", afterSchool.list)
	api.POST("/:id/periscolaire", afterSchool.book)
	api.DELETE("/:id/periscolaire/:date", afterSchool.cancel)
}

func (s *Server) registerReinscriptionRoutes() {
	api := s.engine.Group("/api/reinscriptions")

	api.GET("", s.ListReinscriptions)
	api.POST("", s.RequestReinscription)
	api.GET("/:id", s.GetReinscription)
	api.POST("/:id/valider", s.ValidateReinscription)
	api.POST("/:id/refuser", s.RefuseReinscription)
}

func (s *Server) registerPreinscriptionRoutes() {
	api := s.engine.Group("/api/preinscriptions")

	api.GET("", s.ListPreinscriptions)
	api.POST("", s.CreatePreinscription)
	api.GET("/:id", s.GetPreinscription)
	api.PUT("/:id", s.UpdatePreinscription)
	api.GET("/:id/pdf", s.DownloadPreinscriptionPDF)
	api.POST("/:id/valider", s.ValidatePreinscription)
	api.POST("/:id/refuser", s.RefusePreinscription)
	api.POST("/:id/annuler", s.CancelPreinscription)
}

func (s *Server) registerJustificatifRoutes() {
	api := s.engine.Group("/api/justificatifs")

	api.GET("/types", s.ListJustificatifTypes)
	api.POST("/types", s.CreateJustificatifType)
	api.PUT("/types/:id", s.UpdateJustificatifType)
	api.DELETE("/types/:id", s.DeleteJustificatifType)

	api.GET("/enfants/:childId", s.ListChildJustificatifs)
	api.GET("/enfants/:childId/manquants", s.ListMissingJustificatifs)

	api.POST("", s.SubmitJustificatif)
	api.GET("/:id", s.GetJustificatif)
	api.POST("/:id/valider", s.ApproveJustificatif)
	api.POST("/:id/refuser", s.RefuseJustificatif)
}
