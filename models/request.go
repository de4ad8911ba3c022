package models

// Direction names the source and target sites of a comparison.
type Direction string

const (
	FlipkartToAmazon Direction = "flipkart-to-amazon"
	AmazonToFlipkart Direction = "amazon-to-flipkart"
)

// Mode selects how target search results are extracted.
type Mode string

const (
	// ModeSingle extracts the first match of each field on the search page.
	ModeSingle Mode = "single"

	// ModeAll extracts every complete result on the search page.
	ModeAll Mode = "all"
)

// CompareRequest is the input to one comparison run.
type CompareRequest struct {
	// Direction selects source and target sites. Required.
	Direction Direction

	// URL is the product page on the source site. Required.
	URL string

	// Mode controls target extraction. Default: "single".
	Mode Mode

	// IncludeImage also extracts product images on both sides.
	IncludeImage bool
}

// Defaults applies default values to unset fields.
func (r *CompareRequest) Defaults() {
	if r.Mode == "" {
		r.Mode = ModeSingle
	}
}

// ValidDirection reports whether d is a known direction.
func ValidDirection(d Direction) bool {
	return d == FlipkartToAmazon || d == AmazonToFlipkart
}

// ValidMode reports whether m is a known extraction mode.
func ValidMode(m Mode) bool {
	return m == ModeSingle || m == ModeAll
}
