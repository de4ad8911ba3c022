package models

import "time"

// SourceData holds the fields extracted from the source product page.
type SourceData struct {
	Text  Value  `json:"text"`
	Price Value  `json:"price"`
	Image *Value `json:"image,omitempty"`
}

// TargetData holds the fields extracted from one target search result.
type TargetData struct {
	Price  Value  `json:"price"`
	Rating Value  `json:"rating"`
	Link   Value  `json:"link"`
	Image  *Value `json:"image,omitempty"`
}

// ExtractionResult is the outcome of one comparison. Both directions share
// this shape.
type ExtractionResult struct {
	// Website is the source site name, e.g. "flipkart".
	Website string `json:"website"`

	Direction  Direction  `json:"direction"`
	SourceData SourceData `json:"sourceData"`

	// TargetData is the best (first) target result. In all-results mode it is
	// Results[0], or all-null when the search produced no complete result.
	TargetData TargetData `json:"targetData"`

	// Results lists every complete target result (all-results mode only).
	Results []TargetData `json:"results,omitempty"`
}

// CompareResponse is the response for the direction-specific compare routes.
type CompareResponse struct {
	Success bool `json:"success"`
	*ExtractionResult
}

// ResultItem is one entry of the GET /compare-product response.
type ResultItem struct {
	Price          Value  `json:"price"`
	Rating         Value  `json:"rating"`
	Link           Value  `json:"link"`
	Image          *Value `json:"image,omitempty"`
	ExtractedPrice Value  `json:"extractedPrice"`
}

// ResultsResponse is the response for GET /compare-product.
type ResultsResponse struct {
	Success bool         `json:"success"`
	Results []ResultItem `json:"results"`
}

// NewResultsResponse flattens an all-results ExtractionResult into the
// results list, stamping each item with the source price.
func NewResultsResponse(r *ExtractionResult) ResultsResponse {
	items := make([]ResultItem, 0, len(r.Results))
	for _, t := range r.Results {
		items = append(items, ResultItem{
			Price:          t.Price,
			Rating:         t.Rating,
			Link:           t.Link,
			Image:          t.Image,
			ExtractedPrice: r.SourceData.Price,
		})
	}
	return ResultsResponse{Success: true, Results: items}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// StatusResponse is the response for GET /.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string       `json:"status"` // "healthy" or "unavailable"
	Uptime  string       `json:"uptime"`
	Session SessionStats `json:"session"`
	Version string       `json:"version"`
}

// SessionStats reports the state of the browser session.
type SessionStats struct {
	State       string     `json:"state"`
	BrowserPID  int        `json:"browser_pid,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ActivePages int        `json:"active_pages"`
	MaxPages    int        `json:"max_pages"`
	Launches    int64      `json:"launches"`
}
