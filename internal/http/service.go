package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	apicontract "github.com/tuanvumaihuynh/catalog-service/api-contract"
	"github.com/tuanvumaihuynh/catalog-service/internal/config"
	"github.com/tuanvumaihuynh/catalog-service/internal/http/apierr"
	"github.com/tuanvumaihuynh/catalog-service/internal/http/metric"
	"github.com/tuanvumaihuynh/catalog-service/internal/http/middleware"
	"github.com/tuanvumaihuynh/catalog-service/internal/http/swagger"
	"github.com/tuanvumaihuynh/catalog-service/internal/service"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
)

var tracer = otel.Tracer("internal/http")

// Services are the application services the HTTP API exposes.
type Services struct {
	Category  service.CategoryService
	Product   service.ProductService
	Price     service.PriceService
	Inventory service.InventoryService
	Image     service.ImageService
}

// Service represents the HTTP service.
type Service struct {
	cfg      config.HTTP
	logger   *slog.Logger
	metrics  *metric.Metrics
	gatherer prometheus.Gatherer

	services Services
	checks   map[string]db.HealthChecker
}

type CleanupFunc func(ctx context.Context) error

// New creates the HTTP service. Metrics are registered with reg and served
// from it when reg is also a Gatherer. Checks are probed by the health
// endpoint.
func New(
	cfg config.HTTP,
	log *slog.Logger,
	reg prometheus.Registerer,
	services Services,
	checks map[string]db.HealthChecker,
) *Service {
	gatherer, ok := reg.(prometheus.Gatherer)
	if !ok {
		gatherer = prometheus.DefaultGatherer
	}

	return &Service{
		cfg:      cfg,
		logger:   log.With(slog.String("service", "http")),
		metrics:  metric.New(reg),
		gatherer: gatherer,
		services: services,
		checks:   checks,
	}
}

// Handler builds the router with every middleware and route.
func (s *Service) Handler() (http.Handler, error) {
	r := chi.NewRouter()
	if err := s.RegisterMiddlewares(r); err != nil {
		return nil, err
	}

	if s.cfg.Swagger {
		if err := swagger.Register(r, "Catalog Service API"); err != nil {
			return nil, fmt.Errorf("register swagger: %w", err)
		}
	}

	s.RegisterHandlers(r)

	return r, nil
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	handler, err := s.Handler()
	if err != nil {
		return nil, err
	}

	return s.RunWithServer(ctx, handler)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorContext(ctx, "http server stopped", slog.Any("error", err))
		}
	}()

	s.logger.InfoContext(ctx, "http server listening", slog.String("addr", srv.Addr))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) error {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.CorrelationID(),
		middleware.Cors(s.cfg.CorsOrigins),
		middleware.Logging(s.logger),
	)

	if s.cfg.ValidateRequests {
		doc, err := apicontract.Load()
		if err != nil {
			return fmt.Errorf("load api contract: %w", err)
		}

		router, err := legacy.NewRouter(doc)
		if err != nil {
			return fmt.Errorf("create api contract router: %w", err)
		}

		r.Use(middleware.ValidateRequest(router, s.logger))
	}

	return nil
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Service) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.handleResponseError(w, r, err)
		}
	}
}

func (s *Service) RegisterHandlers(r chi.Router) {
	var (
		categories = newCategoryHandler(s.logger, s.services.Category)
		products   = newProductHandler(s.logger, s.services.Product)
		prices     = newPriceHandler(s.logger, s.services.Price)
		inventory  = newInventoryHandler(s.logger, s.services.Inventory)
		images     = newImageHandler(s.logger, s.services.Image, s.cfg.MaxUploadBytes)
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", s.handle(products.ListProducts))
		r.Get("/products/search", s.handle(products.SearchProducts))
		r.Get("/products/images/{imageId}", s.handle(images.DownloadImage))
		r.Get("/products/{id}", s.handle(products.GetProduct))
		r.Get("/products/{id}/images", s.handle(products.ListImages))
		r.Get("/products/{id}/price", s.handle(prices.GetCurrentPrice))
		r.Get("/products/{id}/prices", s.handle(prices.ListPrices))
		r.Get("/categories", s.handle(categories.ListCategories))
		r.Get("/categories/{id}/products", s.handle(categories.ListCategoryProducts))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/categories", s.handle(categories.CreateCategory))
		r.Put("/categories/{id}", s.handle(categories.RenameCategory))
		r.Delete("/categories/{id}", s.handle(categories.DeleteCategory))
		r.Delete("/categories/slug/{slug}", s.handle(categories.DeleteCategoryBySlug))

		r.Post("/products", s.handle(products.CreateProduct))
		r.Put("/products/{id}", s.handle(products.UpdateProduct))
		r.Patch("/products/{id}", s.handle(products.PatchProduct))
		r.Delete("/products/{id}", s.handle(products.DeleteProduct))
		r.Put("/products/{id}/categories/{categoryId}", s.handle(products.AssignCategory))
		r.Delete("/products/{id}/categories/{categoryId}", s.handle(products.UnassignCategory))
		r.Post("/products/{id}/images", s.handle(images.UploadImage))
		r.Delete("/products/images/{imageId}", s.handle(images.DeleteImage))

		r.Post("/prices/{productId}", s.handle(prices.SetPrice))
		r.Get("/inventory/{productId}", s.handle(inventory.GetQuantity))
		r.Put("/inventory/{productId}", s.handle(inventory.SetQuantity))
	})

	r.Route("/internal", func(r chi.Router) {
		r.Get("/products/{id}", s.handle(products.GetInternalProduct))
		r.Post("/products/{id}/reserve", s.handle(inventory.Reserve))
		r.Post("/products/{id}/release", s.handle(inventory.Release))
	})

	r.Get(middleware.HealthPath, s.handleHealth)

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	res := healthResponse{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for name, check := range s.checks {
		if err := check.Check(ctx); err != nil {
			s.logger.WarnContext(ctx, "health check failed", slog.String("check", name), slog.Any("error", err))
			res.Checks[name] = "down"
			res.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "up"
	}

	writeJSON(w, r, s.logger, status, res)
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}
