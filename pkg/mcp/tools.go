package mcp

import "github.com/mark3labs/mcp-go/mcp"

// registerTools registers all MCP tools with the server
func (s *Server) registerTools() {
	// Health check
	s.mcpServer.AddTool(
		mcp.NewTool("get_health",
			mcp.WithDescription("Check the state store and whether Home Graph reporting is configured"),
		),
		s.handleGetHealth,
	)

	// Sync
	s.mcpServer.AddTool(
		mcp.NewTool("sync_devices",
			mcp.WithDescription("Run SYNC against the gateway and list the translated devices"),
		),
		s.handleSyncDevices,
	)

	// Query
	s.mcpServer.AddTool(
		mcp.NewTool("query_device",
			mcp.WithDescription("Run QUERY for one device and return its state fragment"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device id as returned by sync_devices (gateway href or virtual id)"),
			),
		),
		s.handleQueryDevice,
	)

	// Execute
	s.mcpServer.AddTool(
		mcp.NewTool("execute_command",
			mcp.WithDescription("Run EXECUTE with one command against one device"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Device id as returned by sync_devices"),
			),
			mcp.WithString("command",
				mcp.Required(),
				mcp.Description("Command name (e.g. action.devices.commands.OnOff)"),
			),
			mcp.WithObject("params",
				mcp.Description("Command parameters (e.g. {\"on\": true})"),
			),
		),
		s.handleExecuteCommand,
	)

	// Request sync
	s.mcpServer.AddTool(
		mcp.NewTool("request_sync",
			mcp.WithDescription("Ask Home Graph to re-run SYNC for the agent user"),
		),
		s.handleRequestSync,
	)

	// Virtual state
	s.mcpServer.AddTool(
		mcp.NewTool("get_virtual_state",
			mcp.WithDescription("Read the stored state of a virtual device"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Virtual device id (e.g. washer)"),
			),
		),
		s.handleGetVirtualState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("set_virtual_state",
			mcp.WithDescription("Overwrite the full stored state of a virtual device; the write is reported to Home Graph"),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("Virtual device id (e.g. washer)"),
			),
			mcp.WithObject("state",
				mcp.Required(),
				mcp.Description("Full state (e.g. {\"on\": true, \"isRunning\": false, \"isPaused\": false})"),
			),
		),
		s.handleSetVirtualState,
	)
}
