package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/SatishMiral/chrome-extension-backend/models"
)

// Site holds the fixed selectors for one e-commerce site, both for its
// product page (when it is the source) and its search page (when it is the
// target).
type Site struct {
	Name       string
	Origin     string
	SearchPath string // query is appended percent-encoded

	// Product page fields.
	Title FieldSpec
	Price FieldSpec
	Image FieldSpec

	// Search page fields. Result locates one result card for all-results mode.
	Result       Strategy
	ResultPrice  FieldSpec
	ResultRating FieldSpec
	ResultLink   FieldSpec
	ResultImage  FieldSpec
}

// SearchURL builds the search page URL for query.
func (s *Site) SearchURL(query string) string {
	return s.Origin + s.SearchPath + encodeURIComponent(query)
}

// encodeURIComponent escapes a query term with %20 for spaces.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

var Flipkart = &Site{
	Name:       "flipkart",
	Origin:     "https://www.flipkart.com",
	SearchPath: "/search?q=",

	Title: FieldSpec{
		Name:     "title",
		Required: true,
		Strategies: []Strategy{
			CSS("._6EBuvT"),
			CSS(".VU-ZEz"),
			CSS("span.B_NuCI"),
		},
	},
	Price: FieldSpec{
		Name: "price",
		Strategies: []Strategy{
			CSS(".Nx9bqj.CxhGGd"),
			CSS("._30jeq3._16Jk6d"),
		},
	},
	Image: FieldSpec{
		Name: "image",
		Attr: "src",
		Strategies: []Strategy{
			CSS("img.DByuf4"),
			CSS("img._396cs4"),
		},
	},

	Result: CSS("div[data-id]"),
	ResultPrice: FieldSpec{
		Name:       "price",
		Strategies: []Strategy{CSS(".Nx9bqj")},
	},
	ResultRating: FieldSpec{
		Name:       "rating",
		Strategies: []Strategy{CSS(".XQDdHH")},
	},
	ResultLink: FieldSpec{
		Name: "link",
		Attr: "href",
		Strategies: []Strategy{
			CSS(".VJA3rP"),
			CSS(".CGtC98"),
			CSS(".rPDeLR"),
		},
	},
	ResultImage: FieldSpec{
		Name:       "image",
		Attr:       "src",
		Strategies: []Strategy{CSS("img.DByuf4")},
	},
}

var Amazon = &Site{
	Name:       "amazon",
	Origin:     "https://www.amazon.in",
	SearchPath: "/s?k=",

	Title: FieldSpec{
		Name:     "title",
		Required: true,
		Strategies: []Strategy{
			CSS("#productTitle"),
			XPath("//h1[@id='title']//span"),
		},
	},
	Price: FieldSpec{
		Name: "price",
		Strategies: []Strategy{
			CSS(".a-price-whole"),
			CSS("#corePrice_feature_div .a-offscreen"),
		},
	},
	Image: FieldSpec{
		Name: "image",
		Attr: "src",
		Strategies: []Strategy{
			CSS("#landingImage"),
			XPath("//div[@id='imgTagWrapperId']//img"),
		},
	},

	Result: CSS(".s-main-slot .s-result-item"),
	ResultPrice: FieldSpec{
		Name:       "price",
		Strategies: []Strategy{CSS(".a-offscreen")},
	},
	ResultRating: FieldSpec{
		Name:       "rating",
		MaxLen:     3,
		Strategies: []Strategy{CSS(".a-icon-alt")},
	},
	ResultLink: FieldSpec{
		Name: "link",
		Attr: "href",
		Strategies: []Strategy{
			CSS(".a-link-normal.s-underline-text.s-underline-link-text.s-link-style.a-text-normal"),
			CSS(".a-link-normal.s-underline-text"),
			XPath(".//a[.//h2]"),
		},
	},
	ResultImage: FieldSpec{
		Name:       "image",
		Attr:       "src",
		Strategies: []Strategy{CSS("img.s-image")},
	},
}

// Route resolves the source and target sites of a direction.
func Route(d models.Direction) (source, target *Site, err error) {
	switch d {
	case models.FlipkartToAmazon:
		return Flipkart, Amazon, nil
	case models.AmazonToFlipkart:
		return Amazon, Flipkart, nil
	default:
		return nil, nil, fmt.Errorf("unknown direction %q", d)
	}
}

// DirectionFor infers the comparison direction from a product URL's host.
// It returns "" for hosts of neither site.
func DirectionFor(rawURL string) models.Direction {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "flipkart.com" || strings.HasSuffix(host, ".flipkart.com"):
		return models.FlipkartToAmazon
	case host == "amazon.in" || strings.HasSuffix(host, ".amazon.in"):
		return models.AmazonToFlipkart
	default:
		return ""
	}
}
