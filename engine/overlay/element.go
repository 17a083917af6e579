// Package overlay holds the 2D layer composited above the 3D scene: full-screen curtains, images and
// other flat quads addressed by id, each with an animatable opacity and a display toggle.
package overlay

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-reveal/common"
	"github.com/Carmen-Shannon/oxy-reveal/engine/renderer/bind_group_provider"
)

// Rect is a rectangle in normalized viewport coordinates with the origin at the top-left corner.
type Rect struct {
	X, Y, W, H float32
}

// FullScreen covers the whole viewport.
var FullScreen = Rect{X: 0, Y: 0, W: 1, H: 1}

// element is the implementation of the Element interface.
type element struct {
	mu sync.Mutex

	id     string
	zIndex int
	rect   Rect
	color  [4]float32
	image  *common.TextureStagingData

	// pixelW, pixelH size the element in logical pixels around the rect centre when non-zero.
	pixelW, pixelH float32

	opacity float32
	visible bool

	bindGroupProvider bind_group_provider.BindGroupProvider
}

// Element is a single overlay quad. Opacity and visibility are safe for concurrent use so they can be
// animated from the tick goroutine while the render goroutine reads them.
type Element interface {
	// ID returns the element's unique id within its Layer.
	ID() string

	// ZIndex returns the stacking order; higher values draw on top.
	ZIndex() int

	// Rect returns the element's normalized placement.
	Rect() Rect

	// Color returns the linear RGBA tint, multiplied with the image when one is present.
	Color() [4]float32

	// Image returns the staged image pixels, or nil for a solid quad.
	Image() *common.TextureStagingData

	// Opacity returns the current opacity.
	Opacity() float32

	// SetOpacity sets the opacity. Values outside [0, 1] are stored as-is and clamped when drawn.
	//
	// Parameters:
	//   - opacity: the new opacity
	SetOpacity(opacity float32)

	// Visible reports whether the element takes part in drawing.
	Visible() bool

	// Hide removes the element from drawing without changing its opacity.
	Hide()

	// Show returns a hidden element to drawing.
	Show()

	// Params computes the GPU uniform for the current state against a viewport in logical pixels.
	//
	// Parameters:
	//   - viewportW, viewportH: logical viewport size
	//   - encodeSRGB: whether the shader must encode to sRGB itself
	//
	// Returns:
	//   - GPUOverlayParams: the uniform contents
	Params(viewportW, viewportH float32, encodeSRGB bool) GPUOverlayParams

	// BindGroupProvider returns the GPU resources for this element, or nil before GPU init.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider stores the GPU resources for this element.
	SetBindGroupProvider(p bind_group_provider.BindGroupProvider)
}

var _ Element = &element{}

// NewElement creates a visible, fully opaque, full-screen white element.
//
// Parameters:
//   - id: the element id used for lookups
//   - options: a variadic list of ElementBuilderOption functions
//
// Returns:
//   - Element: the new element
func NewElement(id string, options ...ElementBuilderOption) Element {
	e := &element{
		id:      id,
		rect:    FullScreen,
		color:   [4]float32{1, 1, 1, 1},
		opacity: 1,
		visible: true,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *element) ID() string {
	return e.id
}

func (e *element) ZIndex() int {
	return e.zIndex
}

func (e *element) Rect() Rect {
	return e.rect
}

func (e *element) Color() [4]float32 {
	return e.color
}

func (e *element) Image() *common.TextureStagingData {
	return e.image
}

func (e *element) Opacity() float32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opacity
}

func (e *element) SetOpacity(opacity float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opacity = opacity
}

func (e *element) Visible() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visible
}

func (e *element) Hide() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = false
}

func (e *element) Show() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = true
}

func (e *element) Params(viewportW, viewportH float32, encodeSRGB bool) GPUOverlayParams {
	left, top := e.rect.X, e.rect.Y
	right, bottom := e.rect.X+e.rect.W, e.rect.Y+e.rect.H
	if e.pixelW > 0 && e.pixelH > 0 && viewportW > 0 && viewportH > 0 {
		cx, cy := e.rect.X+e.rect.W/2, e.rect.Y+e.rect.H/2
		hw, hh := e.pixelW/viewportW/2, e.pixelH/viewportH/2
		left, right = cx-hw, cx+hw
		top, bottom = cy-hh, cy+hh
	}

	params := GPUOverlayParams{
		Rect:    [4]float32{left*2 - 1, 1 - top*2, right*2 - 1, 1 - bottom*2},
		Color:   e.color,
		Opacity: common.Clamp(e.Opacity(), 0, 1),
	}
	if e.image != nil {
		params.HasImage = 1
	}
	if encodeSRGB {
		params.EncodeSRGB = 1
	}
	return params
}

func (e *element) BindGroupProvider() bind_group_provider.BindGroupProvider {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bindGroupProvider
}

func (e *element) SetBindGroupProvider(p bind_group_provider.BindGroupProvider) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bindGroupProvider = p
}
