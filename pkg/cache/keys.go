package cache

// Keyer derives cache keys.
type Keyer interface {
	// LayoutKey addresses the grid layout of one pattern of a set.
	LayoutKey(contentHash string, opts LayoutKeyOpts) string
	// RenderKey addresses one rendered artifact of a layout.
	RenderKey(contentHash string, opts RenderKeyOpts) string
}

// LayoutKeyOpts are the inputs of a layout besides the pattern set.
type LayoutKeyOpts struct {
	Pattern string `json:"pattern"` // pattern id, or "#<index>"
}

// RenderKeyOpts are the inputs of a rendered artifact besides the layout.
type RenderKeyOpts struct {
	Pattern     string  `json:"pattern"`
	Format      string  `json:"format"`
	Style       string  `json:"style,omitempty"`
	Zoom        float64 `json:"zoom,omitempty"`
	Connections bool    `json:"connections,omitempty"`
	Detailed    bool    `json:"detailed,omitempty"`
	Title       string  `json:"title,omitempty"`
}

// DefaultKeyer produces "layout:<sha256>" and "render:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) LayoutKey(contentHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", contentHash, opts)
}

func (DefaultKeyer) RenderKey(contentHash string, opts RenderKeyOpts) string {
	return hashKey("render", contentHash, opts)
}
