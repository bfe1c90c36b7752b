// Package mcp exposes the coaching export pipeline to MCP clients: session
// listings, normalized-workout previews, and the export trigger itself.
package mcp

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/paceline/internal/workout"
)

// New creates an MCP server with all tools registered.
func New(ds DataSource, exporter Exporter, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Paceline", version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Paceline coaching export server. List an athlete's endurance sessions, preview the canonical workout a session normalizes to, inspect device connections, and push workouts to a connected fitness platform."),
	)

	h := &handlers{ds: ds, exporter: exporter, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolPreviewWorkout, Handler: h.previewWorkout},
		server.ServerTool{Tool: toolListConnections, Handler: h.listConnections},
		server.ServerTool{Tool: toolExportWorkout, Handler: h.exportWorkout},
	)

	return s
}

// handlers holds dependencies for MCP tool handlers.
type handlers struct {
	ds       DataSource
	exporter Exporter
	log      *slog.Logger
}

// --- Tool definitions ---

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List an athlete's endurance training sessions with their export state (NOT_CONNECTED, PENDING, SENT, FAILED)."),
	mcp.WithString("athlete", mcp.Required(), mcp.Description("Athlete UUID")),
)

var toolPreviewWorkout = mcp.NewTool("preview_workout",
	mcp.WithDescription("Normalize a session's prescription into the flat canonical workout JSON every exporter consumes. Read-only; nothing is sent anywhere."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session UUID")),
)

var toolListConnections = mcp.NewTool("list_connections",
	mcp.WithDescription("List an athlete's device connections: provider, status, primary flag, connected-at. Tokens are never returned."),
	mcp.WithString("athlete", mcp.Required(), mcp.Description("Athlete UUID")),
)

var toolExportWorkout = mcp.NewTool("export_workout",
	mcp.WithDescription("Export a session's workout to a connected fitness platform. Without a provider argument the athlete's primary (or most recent) connection is used."),
	mcp.WithString("session", mcp.Required(), mcp.Description("Session UUID")),
	mcp.WithString("athlete", mcp.Required(), mcp.Description("Athlete UUID")),
	mcp.WithString("provider", mcp.Description("Provider ID (e.g. garmin, wahoo). Defaults to the selection policy.")),
)

// --- Tool handlers ---

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := requireUUID(req, "athlete")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sessions, err := h.ds.ListSessions(ctx, athleteID)
	if err != nil {
		h.log.Error("mcp list_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) previewWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := requireUUID(req, "session")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := h.ds.GetSession(ctx, sessionID)
	if err != nil {
		h.log.Error("mcp preview_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if session == nil {
		return mcp.NewToolResultError("session not found"), nil
	}
	if session.Prescription == nil {
		return mcp.NewToolResultError("session has no workout prescription"), nil
	}

	normalized, err := workout.Normalize(session.Prescription)
	if err != nil {
		return mcp.NewToolResultError("normalization failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(normalized)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	athleteID, err := requireUUID(req, "athlete")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	conns, err := h.ds.ListConnections(ctx, athleteID)
	if err != nil {
		h.log.Error("mcp list_connections", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(conns)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) exportWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := requireUUID(req, "session")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	athleteID, err := requireUUID(req, "athlete")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	provider := req.GetString("provider", "")
	if provider == "" {
		provider, err = h.exporter.SelectProvider(ctx, athleteID)
		if err != nil {
			h.log.Error("mcp export_workout: selection", "error", err)
			return mcp.NewToolResultError("provider selection failed: " + err.Error()), nil
		}
		if provider == "" {
			return mcp.NewToolResultError("no connected device for this athlete"), nil
		}
	}

	state, err := h.exporter.ExportWorkout(ctx, sessionID, athleteID, provider)
	if err != nil {
		// The failure is already persisted on the session; surface it as the
		// tool result rather than a transport error.
		return mcp.NewToolResultError("export failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(state)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func requireUUID(req mcp.CallToolRequest, param string) (uuid.UUID, error) {
	raw, err := req.RequireString(param)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}
