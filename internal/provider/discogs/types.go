package discogs

// Discogs API response types.

// ResourceDetail is the subset of the release and master responses the
// resolver needs. Both endpoints share these fields.
type ResourceDetail struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Year        int     `json:"year"`
	URI         string  `json:"uri"`
	ResourceURL string  `json:"resource_url"`
	Thumb       string  `json:"thumb"`
	Images      []Image `json:"images"`
}

// Image represents a Discogs image.
type Image struct {
	Type        string `json:"type"` // "primary" or "secondary"
	URI         string `json:"uri"`
	URI150      string `json:"uri150"`
	ResourceURL string `json:"resource_url"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}
