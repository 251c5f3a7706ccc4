package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urmzd/homai-bridge/pkg/db"
	"github.com/urmzd/homai-bridge/pkg/device/schema"
	"github.com/urmzd/homai-bridge/pkg/smarthome"
)

// Fulfiller runs the fulfillment intents on the operator's behalf.
type Fulfiller interface {
	Sync(ctx context.Context, requestID, authorization string) (*smarthome.Response, error)
	Query(ctx context.Context, requestID string, payload smarthome.QueryRequestPayload) *smarthome.Response
	Execute(ctx context.Context, requestID string, payload smarthome.ExecuteRequestPayload) *smarthome.Response
}

// SyncRequester asks Home Graph to re-run SYNC.
type SyncRequester interface {
	RequestSync(ctx context.Context) error
}

// Options configures the operator console.
type Options struct {
	// Authorization is the bearer header sent to the gateway.
	Authorization   string
	URLBaseOverride string
	HomeGraph       bool
}

// Server wraps the MCP server with the bridge's operator tools
type Server struct {
	mcpServer *server.MCPServer
	fulfiller Fulfiller
	syncer    SyncRequester
	states    db.StateStore
	validator *schema.Validator
	opts      Options
}

// NewServer creates a new MCP server over the bridge
func NewServer(fulfiller Fulfiller, syncer SyncRequester, states db.StateStore, validator *schema.Validator, opts Options) *Server {
	s := &Server{
		fulfiller: fulfiller,
		syncer:    syncer,
		states:    states,
		validator: validator,
		opts:      opts,
	}

	// Create MCP server
	s.mcpServer = server.NewMCPServer(
		"homai-bridge",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Register all tools
	s.registerTools()

	return s
}

// ServeStdio starts the MCP server using stdio transport
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
