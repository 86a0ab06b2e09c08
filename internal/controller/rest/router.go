package rest

import (
	"arbitron/internal/controller/rest/handlers"
	"arbitron/pkg/health"
	"arbitron/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router exposes the arbitration API: party operations on cases, the juror
// registry and the case history reads. When intake runs over kafka the
// mutating case endpoints are served by the consumer instead.
type Router struct {
	cases           handlers.CaseHandler
	jurors          handlers.JurorHandler
	healthRegistry  *health.Registry
	includeCommands bool
}

func (r *Router) SetUp(engine *gin.Engine) {
	// Health checks (Kubernetes-style)
	engine.GET("/health/live", health.LivenessHandler())
	engine.GET("/health/ready", health.ReadinessHandler(r.healthRegistry, health.DefaultTimeout))

	// Prometheus metrics
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// Command endpoints only in sync mode
	if r.includeCommands {
		engine.POST("/cases", r.cases.FileComplaint)
		engine.POST("/cases/:case_id/respond", r.cases.Respond)
		engine.POST("/cases/:case_id/jurors", r.cases.JoinAsJuror)
		engine.POST("/cases/:case_id/evidence", r.cases.UploadEvidence)
		engine.POST("/cases/:case_id/votes", r.cases.UploadVote)
		engine.POST("/cases/:case_id/reappeal", r.cases.Reappeal)
		engine.POST("/cases/:case_id/rerespond", r.cases.ReRespond)
	}

	// Reads
	engine.GET("/cases", r.cases.Filter)
	engine.GET("/cases/events", r.cases.GetEvents)
	engine.GET("/cases/:case_id", r.cases.Get)

	// Juror registry
	engine.POST("/jurors", r.jurors.Register)
	engine.GET("/jurors/:account", r.jurors.Get)
}

func NewRouter(
	cases handlers.CaseHandler,
	jurors handlers.JurorHandler,
	healthRegistry *health.Registry,
	includeCommands bool,
) *Router {
	return &Router{
		cases:           cases,
		jurors:          jurors,
		healthRegistry:  healthRegistry,
		includeCommands: includeCommands,
	}
}
