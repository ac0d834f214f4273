package server

// Route path constants
const (
	// Streamable HTTP MCP endpoint (POST for requests, GET for the event
	// stream, DELETE to end a session)
	RouteMCP = "/mcp"

	RouteHealth = "/healthz"
)
