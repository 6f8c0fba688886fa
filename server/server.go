package server

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cache"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"aicaster/config"
	"aicaster/hub"
	"aicaster/models"
)

//go:embed static/*
var static embed.FS

var httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "aicaster_http_requests_total",
	Help: "HTTP requests served by route and status code",
}, []string{"route", "status"})

// FeedSource produces the aggregated feed
type FeedSource interface {
	Casts(ctx context.Context) ([]models.EnrichedCast, error)
}

// Hub is the part of the hub client the endpoints and renderer call directly
type Hub interface {
	CastByID(ctx context.Context, fid uint64, hash string) (*hub.Message, error)
	UserProfile(ctx context.Context, fid uint64) models.UserProfile
}

type Previewer interface {
	Preview(ctx context.Context, url string) models.LinkPreview
}

type ServerConfig struct {
	Feed      FeedSource
	Hub       Hub
	Previewer Previewer

	// Origins allowed to call the JSON endpoints from a browser
	AllowOrigins string

	// Clock used for relative times on the rendered page
	Now func() time.Time
}

// Returns a fiber.App instance serving the JSON endpoints and the feed page
func Server(cfg *ServerConfig) *fiber.App {
	if cfg.AllowOrigins == "" {
		cfg.AllowOrigins = "*"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	app := fiber.New(fiber.Config{
		AppName:               "aicaster",
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	// Middleware to track the latency of each request
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := routeLabel(c)
		httpRequests.WithLabelValues(route, http.StatusText(status)).Inc()
		log.WithFields(log.Fields{
			"method":    c.Method(),
			"route":     route,
			"status":    status,
			"requestId": c.GetRespHeader(fiber.HeaderXRequestID),
			"latency":   time.Since(start),
		}).Info("Request")
		return err
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.ConfigDefault))
	app.Use(compress.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowHeaders: "Cache-Control",
	}))

	// Single cast lookups may be served from cache for a short while. Next
	// runs again after the handler; only successful lookups are stored.
	app.Use(cache.New(cache.Config{
		Next: func(c *fiber.Ctx) bool {
			if c.Method() != fiber.MethodGet || !isCastRoute(c.Path()) {
				return true
			}
			return c.Response().StatusCode() != fiber.StatusOK
		},
		Expiration: config.CastRevalidate,
		KeyGenerator: func(c *fiber.Ctx) string {
			// Include the query parameters in the cache key
			return c.Request().URI().String()
		},
	}))

	h := &handlers{
		feed:      cfg.Feed,
		hub:       cfg.Hub,
		previewer: cfg.Previewer,
	}

	r := newRenderer(cfg.Hub, cfg.Previewer, cfg.Now)

	app.Get("/feed", h.getFeed)
	app.Get("/cast", h.getCast)
	app.Get("/userProfile", h.getUserProfile)
	app.Get("/linkPreview", h.getLinkPreview)

	// Route names used by earlier versions of the front-end
	api := app.Group("/api")
	api.Get("/casts", h.getFeed)
	api.Get("/castById", h.getCast)
	api.Get("/userData", h.getUserProfile)
	api.Get("/og", h.getLinkPreview)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	app.Get("/", func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		casts, err := cfg.Feed.Casts(ctx)
		if err != nil {
			log.WithField("error", err).Error("Error building feed page")
			c.Status(fiber.StatusInternalServerError)
		}

		body, renderErr := r.render(ctx, casts, err)
		if renderErr != nil {
			return renderErr
		}
		c.Type("html", "utf-8")
		return c.Send(body)
	})

	// Serve the stylesheet
	app.Use("/static", filesystem.New(filesystem.Config{
		Browse:     false,
		Root:       http.FS(static),
		PathPrefix: "/static",
	}))

	return app
}

func isCastRoute(path string) bool {
	return path == "/cast" || path == "/api/castById"
}

// routeLabel names the route for metrics and logs. Cache hits are answered
// before routing and would otherwise be reported as the middleware path.
func routeLabel(c *fiber.Ctx) string {
	if isCastRoute(c.Path()) {
		return c.Path()
	}
	return c.Route().Path
}

// errorHandler turns every error that reaches fiber, panics included, into
// a JSON error body
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		log.WithFields(log.Fields{
			"path":  c.Path(),
			"error": err,
		}).Error("Request failed")
	}

	return c.Status(code).JSON(models.ErrorResponse{Error: message})
}
