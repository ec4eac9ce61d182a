// Package mcp exposes source search as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/modularwp/media-import/pkg/api/auth"
	"github.com/modularwp/media-import/pkg/sources/types"
)

type sourceRegistry interface {
	List() []types.Source
	Search(ctx context.Context, req types.SearchRequest) (*types.SearchResult, error)
}

type Handler struct {
	registry sourceRegistry
	logger   *zerolog.Logger
}

type ListSourcesInput struct{}

type SourceOutput struct {
	ID    string `json:"id" jsonschema:"The source identifier to pass to search_media"`
	Label string `json:"label" jsonschema:"Human readable source name"`
}

type ListSourcesOutput struct {
	Sources []SourceOutput `json:"sources" jsonschema:"Registered media sources"`
}

type SearchMediaInput struct {
	Source string `json:"source" jsonschema:"The source identifier, e.g. pexels"`
	Query  string `json:"query,omitempty" jsonschema:"Search terms. Empty lists curated or popular media"`
	Page   int    `json:"page,omitempty" jsonschema:"1-based page number (default 1)"`
	Type   string `json:"type,omitempty" jsonschema:"Media type for sources that support it (photo/video)"`
}

type MediaOutput struct {
	ID          string `json:"id" jsonschema:"Identifier of the item within its source"`
	Title       string `json:"title" jsonschema:"Display name"`
	URL         string `json:"url" jsonschema:"Download location"`
	Thumbnail   string `json:"thumbnail" jsonschema:"Preview image"`
	Type        string `json:"type" jsonschema:"image, video, audio or unknown"`
	Width       int    `json:"width,omitempty" jsonschema:"Width in pixels when known"`
	Height      int    `json:"height,omitempty" jsonschema:"Height in pixels when known"`
	Attribution string `json:"attribution" jsonschema:"Credit line to show with the media"`
}

type SearchMediaOutput struct {
	Items   []MediaOutput `json:"items" jsonschema:"Matching media"`
	Total   int           `json:"total" jsonschema:"Total matches reported by the source"`
	HasMore bool          `json:"hasMore" jsonschema:"Whether another page can be requested"`
}

func NewHandler(registry sourceRegistry, logger *zerolog.Logger) http.Handler {
	h := &Handler{
		registry: registry,
		logger:   logger,
	}

	getServer := func(r *http.Request) *mcp.Server {
		user, _ := auth.UserFromContext(r.Context())
		logger.Debug().
			Str("user_id", user.UserID).
			Msg("Creating new MCP server instance for request")

		mcpServer := mcp.NewServer(&mcp.Implementation{
			Name:    "media-import-mcp-server",
			Version: "v0.1.0",
		}, nil)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        "list_sources",
			Description: "List the media sources that can be searched",
		}, h.listSources)

		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        "search_media",
			Description: "Search one page of stock photos, videos or files from a media source",
		}, h.searchMedia)

		return mcpServer
	}

	return mcp.NewStreamableHTTPHandler(getServer, &mcp.StreamableHTTPOptions{
		Stateless: true,
	})
}

func (h *Handler) listSources(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListSourcesInput,
) (*mcp.CallToolResult, ListSourcesOutput, error) {
	found := h.registry.List()

	out := make([]SourceOutput, len(found))
	for i, src := range found {
		out[i] = SourceOutput{ID: src.ID(), Label: src.Label()}
	}

	return nil, ListSourcesOutput{Sources: out}, nil
}

func (h *Handler) searchMedia(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchMediaInput,
) (*mcp.CallToolResult, SearchMediaOutput, error) {
	res, err := h.registry.Search(ctx, types.SearchRequest{
		SourceID: input.Source,
		Query:    input.Query,
		Page:     max(input.Page, 1),
		Type:     input.Type,
	})
	if err != nil {
		return nil, SearchMediaOutput{}, fmt.Errorf("search media: %s", types.UserMessage(err))
	}

	return nil, toSearchOutput(res), nil
}

func toSearchOutput(res *types.SearchResult) SearchMediaOutput {
	items := make([]MediaOutput, len(res.Items))
	for i, item := range res.Items {
		items[i] = MediaOutput{
			ID:          item.SourceItemID,
			Title:       item.Title,
			URL:         item.URL,
			Thumbnail:   item.PreviewURL(),
			Type:        string(item.Type),
			Width:       item.Width,
			Height:      item.Height,
			Attribution: item.Attribution,
		}
	}

	return SearchMediaOutput{
		Items:   items,
		Total:   res.Total,
		HasMore: res.HasMore,
	}
}
