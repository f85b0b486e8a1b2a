package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spawnwatch/spawnwatch/pkg/client"
)

// Server adapts spawnwatch-d to the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
}

// NewServer creates a new MCP server instance.
func NewServer(apiURL string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"spawnwatch",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// spawnwatch://board
	s.mcpServer.AddResource(mcp.NewResource(
		"spawnwatch://board",
		"Spawnwatch Event Board",
		mcp.WithResourceDescription("The ranked event board: next occurrences, active and upcoming flags"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadBoard)

	// spawnwatch://alerts
	s.mcpServer.AddResource(mcp.NewResource(
		"spawnwatch://alerts",
		"Recent Alerts",
		mcp.WithResourceDescription("Recently delivered lead-time alerts and confirmations"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadAlerts)
}

// --- Tools ---

func (s *Server) registerTools() {
	// next_spawn
	s.mcpServer.AddTool(mcp.NewTool(
		"next_spawn",
		mcp.WithDescription("Look up when an event next occurs. Returns the countdown and location."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Event name or substring to search for")),
	), s.handleNextSpawn)

	// follow_event
	s.mcpServer.AddTool(mcp.NewTool(
		"follow_event",
		mcp.WithDescription("Follow or unfollow an event by id to control lead-time alerts."),
		mcp.WithString("event_id", mcp.Required(), mcp.Description("The event id to follow")),
		mcp.WithBoolean("unfollow", mcp.Description("Set true to unfollow instead")),
	), s.handleFollowEvent)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"spawnwatch-aware",
		mcp.WithPromptDescription("Provides context about Spawnwatch concepts (Events, Board, Following)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadBoard(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	board, err := s.apiClient.Board(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board: %w", err)
	}

	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal board: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReadAlerts(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	alerts, err := s.apiClient.Alerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}

	data, err := json.MarshalIndent(alerts, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alerts: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleNextSpawn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := mcp.ParseString(request, "query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	board, err := s.apiClient.Board(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	matches, err := s.apiClient.Events(ctx, query, "name")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No event matches %q", query)), nil
	}

	target := matches[0]
	for _, entry := range board.Entries {
		if entry.Event.ID != target.ID {
			continue
		}
		if entry.Active {
			return mcp.NewToolResultText(fmt.Sprintf(
				"%s is ACTIVE right now at %s", entry.Event.Name, entry.Event.Location)), nil
		}
		if entry.Countdown == "" {
			return mcp.NewToolResultText(fmt.Sprintf(
				"%s has no upcoming occurrence", entry.Event.Name)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(
			"%s spawns in %s at %s", entry.Event.Name, entry.Countdown, entry.Event.Location)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s is not on the board", target.Name)), nil
}

func (s *Server) handleFollowEvent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	eventID := mcp.ParseString(request, "event_id", "")
	unfollow := mcp.ParseBoolean(request, "unfollow", false)
	if eventID == "" {
		return mcp.NewToolResultError("event_id is required"), nil
	}

	var err error
	if unfollow {
		err = s.apiClient.Unfollow(ctx, eventID)
	} else {
		err = s.apiClient.Follow(ctx, eventID)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	verb := "Following"
	if unfollow {
		verb = "Unfollowed"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s event %s", verb, eventID)), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "spawnwatch-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with Spawnwatch, a local daemon tracking recurring game events.

Concepts:
- Event: A recurring in-game happening with a location and reward list.
- Board: The ranked view of all events, soonest occurrence first. Active means the event started within the last 15 minutes; upcoming marks whatever spawns next.
- Following: Followed events raise an alert shortly before each occurrence.
- Pinning: Pinned events stay at the top of the board (at most 4).

Use the 'next_spawn' tool to answer "when is X" questions.
Use the 'follow_event' tool when the user wants alerts for an event.
`

	return mcp.NewGetPromptResult(
		"spawnwatch-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
