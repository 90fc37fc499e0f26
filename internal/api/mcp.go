package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/shagowda/folio/internal/responder"
	"github.com/shagowda/folio/internal/storage"
)

// InteractionRecorder persists answered messages. *storage.Store satisfies it.
type InteractionRecorder interface {
	SaveInteraction(i storage.Interaction) error
}

// ReplyObserver counts replies. *metrics.Metrics satisfies it.
type ReplyObserver interface {
	ObserveReply(category string)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Responder *responder.Responder
	Recorder  InteractionRecorder // optional
	Observer  ReplyObserver       // optional
	Version   string
}

// KnowledgeRule is one entry of the portfolio://knowledge resource.
type KnowledgeRule struct {
	Category responder.Category `json:"category"`
	Keywords []string           `json:"keywords"`
	Pattern  string             `json:"pattern"`
}

// KnowledgeSummary is the JSON body of the portfolio://knowledge resource.
type KnowledgeSummary struct {
	Owner        responder.Owner        `json:"owner"`
	Rules        []KnowledgeRule        `json:"rules"`
	Categories   []responder.Category   `json:"categories"`
	QuickReplies []responder.QuickReply `json:"quick_replies"`
}

// NewMCPServer creates an MCP server exposing the portfolio assistant.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	owner := deps.Responder.Knowledge().Owner.Name

	s := server.NewMCPServer(
		"folio",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions(fmt.Sprintf("folio answers questions about %s's skills, projects, experience, education and contact details.", owner)),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask",
			mcp.WithDescription(fmt.Sprintf("Ask the portfolio assistant a question about %s and get the canned answer.", owner)),
			mcp.WithString("message", mcp.Description("The question to ask"), mcp.Required()),
		),
		mcpAsk(deps),
	)

	s.AddTool(
		mcp.NewTool("classify",
			mcp.WithDescription("Return the topic category a message would be answered from, without answering it."),
			mcp.WithString("message", mcp.Description("The message to classify"), mcp.Required()),
		),
		mcpClassify(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"portfolio://knowledge",
			"Portfolio Knowledge",
			mcp.WithResourceDescription("Owner details, topic categories and the keyword rules used to pick answers"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceKnowledge(deps),
	)

	return s
}

func mcpAsk(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil || strings.TrimSpace(message) == "" {
			return mcpError("message is required"), nil
		}

		c, reply := deps.Responder.Reply(message)
		if deps.Observer != nil {
			deps.Observer.ObserveReply(string(c))
		}
		if deps.Recorder != nil {
			err := deps.Recorder.SaveInteraction(storage.Interaction{
				ID:        uuid.New().String(),
				CreatedAt: time.Now(),
				Message:   message,
				Category:  string(c),
				Source:    "mcp",
			})
			if err != nil {
				slog.Warn("failed to record MCP interaction", "error", err)
			}
		}

		return mcpText(reply), nil
	}
}

func mcpClassify(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		message, err := req.RequireString("message")
		if err != nil {
			return mcpError("message is required"), nil
		}
		return mcpText(string(deps.Responder.Classify(message))), nil
	}
}

func mcpResourceKnowledge(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		kb := deps.Responder.Knowledge()
		summary := KnowledgeSummary{
			Owner:        kb.Owner,
			Categories:   responder.Categories(),
			QuickReplies: kb.QuickReplies,
		}
		for _, rule := range deps.Responder.Rules() {
			summary.Rules = append(summary.Rules, KnowledgeRule{
				Category: rule.Category,
				Keywords: rule.Keywords,
				Pattern:  rule.Pattern(),
			})
		}

		b, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal knowledge: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
