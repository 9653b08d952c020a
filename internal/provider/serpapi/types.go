package serpapi

// SerpApi response types. Only the fields the resolver reads are decoded;
// the raw body is kept alongside for the scan fallback.

// searchResponse is the top-level response from the search.json endpoint.
type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
	// Some Google-result APIs name the list "organic".
	Organic []organicResult `json:"organic"`
	Error   string          `json:"error,omitempty"`
}

// organicResult is a single organic search hit.
type organicResult struct {
	Position      int    `json:"position"`
	Title         string `json:"title"`
	Link          string `json:"link"`
	DisplayedLink string `json:"displayed_link"`
	Source        string `json:"source"`
	Thumbnail     string `json:"thumbnail"`
	ImageURL      string `json:"imageUrl"`
}
