package chart

// DefaultZoom is the size in pixels of one grid unit.
const DefaultZoom = 25.0

// Option configures chart rendering.
type Option func(*options)

type options struct {
	zoom        float64
	connections bool
	style       Style
	title       string
	scale       float64
}

func newOptions(opts []Option) options {
	o := options{zoom: DefaultZoom, style: Simple{}, scale: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.zoom <= 0 {
		o.zoom = DefaultZoom
	}
	if o.scale <= 0 {
		o.scale = 1
	}
	return o
}

// WithZoom sets the pixel size of one grid unit.
func WithZoom(z float64) Option { return func(o *options) { o.zoom = z } }

// WithConnections draws connections that skip rows.
func WithConnections() Option { return func(o *options) { o.connections = true } }

// WithStyle sets the visual style (default [Simple]).
func WithStyle(s Style) Option {
	return func(o *options) {
		if s != nil {
			o.style = s
		}
	}
}

// WithTitle adds an SVG <title>.
func WithTitle(t string) Option { return func(o *options) { o.title = t } }

// WithScale multiplies the raster size of PNG output.
func WithScale(s float64) Option { return func(o *options) { o.scale = s } }
