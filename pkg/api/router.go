package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urmzd/homai-bridge/pkg/api/handlers"
	"github.com/urmzd/homai-bridge/pkg/device"
	"github.com/urmzd/homai-bridge/pkg/device/schema"
)

// Router holds the Gin engine
type Router struct {
	engine *gin.Engine
}

// BridgeDeps are the collaborators of the cloud webhook server.
type BridgeDeps struct {
	Fulfiller   handlers.Fulfiller
	Syncer      handlers.SyncRequester
	States      handlers.StateStore
	Validator   *schema.Validator
	AgentUserID string
	WasherID    string
	Checks      map[string]handlers.Check
}

func newEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	SetupMiddleware(engine)
	return engine
}

// NewBridgeRouter creates the fulfillment webhook router
func NewBridgeRouter(deps BridgeDeps) *Router {
	engine := newEngine()
	engine.Use(CORS())

	// Swagger UI
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/docs", func(c *gin.Context) {
		c.Redirect(301, "/swagger/index.html")
	})

	healthHandler := handlers.NewHealthHandler(deps.Checks)
	engine.GET("/health", healthHandler.Health)

	fulfillmentHandler := handlers.NewFulfillmentHandler(deps.Fulfiller)
	engine.POST("/smarthome", fulfillmentHandler.Smarthome)

	homeGraphHandler := handlers.NewHomeGraphHandler(deps.Syncer, deps.AgentUserID)
	engine.POST("/requestsync", homeGraphHandler.RequestSync)

	stateHandler := handlers.NewStateHandler(deps.States, deps.Validator, deps.WasherID)
	engine.POST("/updatestate", stateHandler.UpdateState)
	// the simulator posts to the camel-case path
	engine.POST("/updateState", stateHandler.UpdateState)
	engine.GET("/states", stateHandler.ListStates)

	return &Router{engine: engine}
}

// NewLocalRouter creates the local fulfillment agent router
func NewLocalRouter(agent handlers.LocalAgent, checks map[string]handlers.Check) *Router {
	engine := newEngine()

	healthHandler := handlers.NewHealthHandler(checks)
	engine.GET("/health", healthHandler.Health)

	localHandler := handlers.NewLocalHandler(agent)
	engine.POST("/intent", localHandler.Intent)
	engine.POST("/scan", localHandler.Scan)

	return &Router{engine: engine}
}

// NewWasherRouter creates the washer simulator router
func NewWasherRouter(controller device.Controller, validator *schema.Validator) *Router {
	engine := newEngine()

	washerHandler := handlers.NewWasherHandler(controller, validator)
	engine.GET("/", washerHandler.GetState)
	engine.POST("/", washerHandler.Override)
	engine.POST("/commands/:name", washerHandler.Transition)

	healthHandler := handlers.NewHealthHandler(nil)
	engine.GET("/health", healthHandler.Health)

	return &Router{engine: engine}
}

// Handler exposes the engine for an http.Server
func (r *Router) Handler() http.Handler {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
