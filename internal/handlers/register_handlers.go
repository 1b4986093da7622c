package handlers

import (
	"github.com/gin-gonic/gin"
	portssvc "github.com/statera-app/statera/internal/core/ports/services"
	"github.com/statera-app/statera/internal/middleware"
	"github.com/statera-app/statera/internal/platform/config"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Add health check route
	r.GET("/health", func(c *gin.Context) {
		c.String(200, "OK")
	})
	r.GET("/", getHome)

	setupAPIV1Routes(r, cfg, services)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
) {
	// Owner/user identification applies to the entire v1 group
	v1 := r.Group("/api/v1", middleware.OwnerContext())

	registerLedgerRoutes(v1, services.Ledger)
	registerMatchingRoutes(v1, services.Matching)
	registerTransferRoutes(v1, services.Transfer)
	registerConsistencyRoutes(v1, services.Consistency)
	registerReviewRoutes(v1, services.Review)
}
