package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/SatishMiral/chrome-extension-backend/models"
	"github.com/SatishMiral/chrome-extension-backend/scraper"
)

func main() {
	apiURL := os.Getenv("PRICECOMPARE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}
	apiKey := os.Getenv("PRICECOMPARE_API_KEY")

	s := newServer(strings.TrimSuffix(apiURL, "/"), apiKey)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(apiURL, apiKey string) *server.MCPServer {
	s := server.NewMCPServer(
		"pricecompare",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	compareTool := mcp.NewTool("compare_product",
		mcp.WithDescription("Compare a Flipkart or Amazon India product against the other store. Returns the source title and price, and the matching offer's price, rating and link on the other store."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Product page URL on flipkart.com or amazon.in"),
		),
		mcp.WithString("direction",
			mcp.Description("Comparison direction; inferred from the URL when omitted"),
			mcp.Enum(string(models.FlipkartToAmazon), string(models.AmazonToFlipkart)),
		),
		mcp.WithString("mode",
			mcp.Description("'single' (default) returns the first match, 'all' lists every complete search result"),
			mcp.Enum(string(models.ModeSingle), string(models.ModeAll)),
		),
	)
	s.AddTool(compareTool, handleCompareProduct(apiURL, apiKey))

	return s
}

func handleCompareProduct(apiURL, apiKey string) server.ToolHandlerFunc {
	// Two navigations of up to 30s each.
	client := &http.Client{Timeout: 90 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		productURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		direction := models.Direction(request.GetString("direction", ""))
		if direction == "" {
			direction = scraper.DirectionFor(productURL)
		}

		var path string
		switch direction {
		case models.FlipkartToAmazon:
			path = "/compare-flipkart-product"
		case models.AmazonToFlipkart:
			path = "/compare-amazon-product"
		default:
			return mcp.NewToolResultError("url is not a flipkart.com or amazon.in product page; pass direction"), nil
		}

		q := url.Values{}
		q.Set("url", productURL)
		if mode := request.GetString("mode", ""); mode != "" {
			q.Set("mode", mode)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+path+"?"+q.Encode(), nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}
		if apiKey != "" {
			httpReq.Header.Set("X-API-Key", apiKey)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		if resp.StatusCode != http.StatusOK {
			var errResp models.ErrorResponse
			if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
				return mcp.NewToolResultError(fmt.Sprintf("[%d] %s", resp.StatusCode, errResp.Error)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("API returned status %d", resp.StatusCode)), nil
		}

		var cmpResp models.CompareResponse
		if err := json.Unmarshal(respBody, &cmpResp); err != nil || cmpResp.ExtractionResult == nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		return mcp.NewToolResultText(formatComparison(cmpResp.ExtractionResult)), nil
	}
}

// formatComparison renders a result as plain text for the model.
func formatComparison(r *models.ExtractionResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product: %s\n", orNA(r.SourceData.Text))
	fmt.Fprintf(&b, "Price on %s: %s\n", r.Website, orNA(r.SourceData.Price))

	offers := r.Results
	if len(offers) == 0 {
		offers = []models.TargetData{r.TargetData}
	}
	for i, t := range offers {
		fmt.Fprintf(&b, "\nMatch %d\n", i+1)
		fmt.Fprintf(&b, "  Price:  %s\n", orNA(t.Price))
		fmt.Fprintf(&b, "  Rating: %s\n", orNA(t.Rating))
		fmt.Fprintf(&b, "  Link:   %s\n", orNA(t.Link))
	}
	return b.String()
}

func orNA(v models.Value) string {
	if !v.Ok() {
		return "n/a"
	}
	return v.String()
}
