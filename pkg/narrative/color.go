package narrative

// Color is an RGBA tint with float components, usually in [0,1].
type Color struct {
	R float32 `json:"r" yaml:"r"`
	G float32 `json:"g" yaml:"g"`
	B float32 `json:"b" yaml:"b"`
	A float32 `json:"a" yaml:"a"`
}

// Add returns the component-wise sum of c and o.
func (c Color) Add(o Color) Color {
	return Color{R: c.R + o.R, G: c.G + o.G, B: c.B + o.B, A: c.A + o.A}
}

// Scale multiplies every component by f.
func (c Color) Scale(f float32) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f, A: c.A * f}
}
