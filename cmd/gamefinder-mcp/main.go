package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/debsscc/Game-Data-Automation/models"
)

func main() {
	apiURL := os.Getenv("GAMEFINDER_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	apiURL = strings.TrimRight(apiURL, "/")

	s := server.NewMCPServer(
		"gamefinder",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	findGameTool := mcp.NewTool("find_game",
		mcp.WithDescription("Search the game store for a title and return its product record: price, rating, reviews, tags, languages and inferred market signals. Uses a headless browser, so a search can take up to a few minutes."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The game name to search for"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached record up to this many milliseconds old (0 = always search)"),
		),
	)
	s.AddTool(findGameTool, handleFindGame(apiURL))

	extractPageTool := mcp.NewTool("extract_page",
		mcp.WithDescription("Extract a product record from the HTML of an already saved store product page, without launching a browser."),
		mcp.WithString("html",
			mcp.Required(),
			mcp.Description("The raw HTML of the product page"),
		),
		mcp.WithString("url",
			mcp.Description("The URL the page was saved from"),
		),
		mcp.WithString("query",
			mcp.Description("The query to record alongside the result"),
		),
	)
	s.AddTool(extractPageTool, handleExtractPage(apiURL))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Game Finder API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// recordResult turns an API response body into a tool result.
func recordResult(respBody []byte) *mcp.CallToolResult {
	var resp models.SearchResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err))
	}

	if !resp.Success || resp.Record == nil {
		errMsg := "request failed"
		if resp.Error != nil {
			errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
		}
		return mcp.NewToolResultError(errMsg)
	}

	out, err := json.MarshalIndent(resp.Record, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format record: %v", err))
	}

	var sb strings.Builder
	if resp.CacheStatus == "hit" {
		sb.WriteString("(served from cache)\n")
	}
	sb.Write(out)
	return mcp.NewToolResultText(sb.String())
}

func handleFindGame(apiURL string) server.ToolHandlerFunc {
	// Covers the server's own request timeout plus transfer.
	client := &http.Client{Timeout: 180 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		payload := models.SearchRequest{
			Query:  query,
			MaxAge: int(request.GetFloat("max_age", 0)),
		}

		respBody, err := apiPost(ctx, client, apiURL, "/api/v1/search", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("search request failed: %v", err)), nil
		}
		return recordResult(respBody), nil
	}
}

func handleExtractPage(apiURL string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		html, err := request.RequireString("html")
		if err != nil || html == "" {
			return mcp.NewToolResultError("html is required"), nil
		}

		payload := models.ExtractRequest{
			HTML:  html,
			URL:   request.GetString("url", ""),
			Query: request.GetString("query", ""),
		}

		respBody, err := apiPost(ctx, client, apiURL, "/api/v1/extract", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extract request failed: %v", err)), nil
		}
		return recordResult(respBody), nil
	}
}
