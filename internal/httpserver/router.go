package httpserver

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nottechincal/StuffedLamb-Final/internal/catalog"
	"github.com/nottechincal/StuffedLamb-Final/internal/notify"
	cartsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/cart"
	ordersvc "github.com/nottechincal/StuffedLamb-Final/internal/service/order"
	"github.com/nottechincal/StuffedLamb-Final/internal/service/pickup"
	pricingsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/pricing"
	sessionsvc "github.com/nottechincal/StuffedLamb-Final/internal/service/session"
)

// Deps carries the engine services the webhook dispatches into.
type Deps struct {
	Catalog  *catalog.Catalog
	Sessions *sessionsvc.Service
	Cart     *cartsvc.Service
	Pricing  *pricingsvc.Service
	Pickup   *pickup.Resolver
	Orders   *ordersvc.Service
	Notifier notify.Notifier
}

func (d Deps) validate() error {
	switch {
	case d.Catalog == nil:
		return errors.New("catalog required")
	case d.Sessions == nil:
		return errors.New("session service required")
	case d.Cart == nil:
		return errors.New("cart service required")
	case d.Pricing == nil:
		return errors.New("pricing service required")
	case d.Pickup == nil:
		return errors.New("pickup resolver required")
	case d.Orders == nil:
		return errors.New("order service required")
	case d.Notifier == nil:
		return errors.New("notifier required")
	}
	return nil
}

// buildRouter wires routes for the webhook API.
func buildRouter(logger *log.Logger, deps Deps, allowedOrigins []string) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	corsCfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
	corsCfg.AllowHeaders = []string{"Content-Type", "Authorization"}
	router.Use(cors.New(corsCfg))

	wh := &webhook{deps: deps, logger: logger}

	router.GET("/health", healthHandler(deps.Catalog))
	router.POST("/webhook", wh.handle)

	return router, nil
}

// requestLogger logs method and path, skipping the health probe.
func requestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path != "/health" {
			logger.Printf("%s %s", c.Request.Method, c.Request.URL.Path)
		}
		c.Next()
	}
}

func healthHandler(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"shop":      cat.Business().Name,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}
