package reader

// Document is one unit of extracted content, typically a single page.
type Document struct {
	Name    string         `json:"name"`
	ID      string         `json:"id,omitempty"`
	Content string         `json:"content"`
	Meta    map[string]any `json:"meta_data,omitempty"`
}
