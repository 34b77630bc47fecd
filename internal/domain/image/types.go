package image

// Payload is the sanitised image handed to downstream model calls. Data holds
// the base64-encoded bytes, never a raw file path.
type Payload struct {
	Data   string `json:"data,omitempty"`
	Format string `json:"format,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// DataURL renders the payload as a data: URL suitable for vision model APIs.
func (p *Payload) DataURL() string {
	format := p.Format
	if format == "" {
		format = "jpeg"
	}
	return "data:image/" + format + ";base64," + p.Data
}

// ValidationResult captures the outcome of security validation.
type ValidationResult struct {
	IsValid      bool
	Format       string
	Width        int
	Height       int
	FileSize     int64
	Error        error
	SecurityRisk string
}
