package amazon

// ScraperOutput represents the JSON output from amazon-order-scraper
type ScraperOutput struct {
	Orders []ScraperOrder `json:"orders"`
}

// ScraperOrder represents an order from the scraper output
type ScraperOrder struct {
	OrderID   string        `json:"orderId"`
	OrderDate string        `json:"orderDate"` // ISO 8601: "2025-12-13"
	Total     string        `json:"total"`     // "$116.20"
	Subtotal  string        `json:"subtotal"`  // "$109.62"
	Tax       string        `json:"tax"`       // "$6.58"
	Shipping  string        `json:"shipping"`  // "$0.00"
	Items     []ScraperItem `json:"items"`
}

// ScraperItem represents an item from the scraper output
type ScraperItem struct {
	Name     string `json:"name"`
	Price    string `json:"price"`    // "$14.99"
	Quantity int    `json:"quantity"` // numeric
}
