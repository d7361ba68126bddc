package api

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"stagepass/internal/cache"
	"stagepass/internal/config"
	"stagepass/internal/database"
	"stagepass/internal/handlers"
	"stagepass/internal/messaging"
	"stagepass/internal/metrics"
	"stagepass/internal/middleware"
	"stagepass/internal/repository"
	"stagepass/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server представляет HTTP сервер API
type Server struct {
	router       *gin.Engine
	config       *config.Config
	db           *database.DB
	nats         *messaging.NATSClient
	catalogCache *cache.CatalogCache
	services     *service.Services
	repos        *repository.Repositories
	monitor      *metrics.Monitor
}

// NewServer создает новый экземпляр сервера
func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// NATS and the cache are optional: without NATS the reconciler sweep still
	// covers side effects, without the cache every listing hits the database.
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		slog.Warn("NATS unavailable, events disabled", "error", err)
		natsClient = nil
	}

	catalogCache, err := cache.NewCatalogCache(cfg.Cache)
	if err != nil {
		slog.Warn("Cache unavailable, catalog served from database", "error", err)
		catalogCache = nil
	}

	repos := repository.NewRepositories(db)

	opts := service.PricingOptions{
		FeeRate:           cfg.Pricing.FeeRate,
		EnforceSaleWindow: cfg.Pricing.EnforceSaleWindow,
	}

	var publisher service.Publisher
	if natsClient != nil {
		publisher = natsClient
	}
	var invalidator service.CacheInvalidator
	if catalogCache != nil {
		invalidator = catalogCache
	}

	services := service.NewServices(repos, publisher, invalidator, opts)

	monitor := metrics.NewMonitor(repos.SideEffects)
	monitor.Start()

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:       router,
		config:       cfg,
		db:           db,
		nats:         natsClient,
		catalogCache: catalogCache,
		services:     services,
		repos:        repos,
		monitor:      monitor,
	}

	server.setupRoutes()

	return server
}

// setupRoutes настраивает все API роуты
func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.catalogCache)

	api := s.router.Group("/api")
	{
		events := api.Group("/events")
		{
			events.GET("/:event_id/ticket-types", h.ListTicketTypes)
			events.GET("/:event_id/social-stats", h.GetSocialStats)
			events.POST("/:event_id/shares", h.RecordShareClick)
		}

		ticketTypes := api.Group("/ticket-types")
		{
			ticketTypes.GET("/:id/availability", h.GetAvailability)
		}

		availability := api.Group("/availability")
		{
			availability.POST("/check", h.CheckAvailability)
		}

		promoCodes := api.Group("/promo-codes")
		{
			promoCodes.POST("/validate", h.ValidatePromoCode)
		}

		purchases := api.Group("/purchases")
		{
			purchases.POST("", h.CreatePurchase)
			purchases.GET("/:order_number", h.GetSale)
		}
	}

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// healthCheck обрабатывает health check запросы
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "stagepass-api",
		"version": "1.0.0",
	})
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.monitor != nil {
		s.monitor.Stop()
	}

	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			log.Printf("Error closing NATS connection: %v", err)
		}
	}

	if s.catalogCache != nil {
		if err := s.catalogCache.Close(); err != nil {
			log.Printf("Error closing cache connection: %v", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
			return err
		}
	}

	return nil
}
