// Package overlay is the single source of truth for censor placement. The
// admin editor API, the public reader, and the email generator all place masks
// through the same percentage math here, so the three surfaces cannot drift.
package overlay

import (
	"github.com/google/uuid"

	"github.com/Mbenve9198/exit-wounds/models"
)

const (
	// DefaultSizePct is the width/height of a freshly added censor.
	DefaultSizePct = 10.0
	// MinSizePct is the resize floor; anything smaller stops being grabbable.
	MinSizePct = 5.0
	// FontScale sizes the emoji glyph relative to min(width, height) so it
	// visually fills the mask at any absolute image size.
	FontScale = 0.8
)

// Box is the rendered image's bounding box in pixels.
type Box struct {
	Width  float64
	Height float64
}

// Zero reports whether the box has no measurable area, e.g. the image has not
// loaded yet. All percentage math is skipped against a zero box.
func (b Box) Zero() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Point is a pointer position in pixels relative to the box origin.
type Point struct {
	X float64
	Y float64
}

// Rect is an absolute pixel placement inside a box.
type Rect struct {
	Left     float64
	Top      float64
	Width    float64
	Height   float64
	FontSize float64
}

// NewCensor returns a centered censor of the default size carrying the given
// emoji. New censors default to locked.
func NewCensor(emoji string) models.Censor {
	return models.Censor{
		ID:     "censor-" + uuid.New().String(),
		Kind:   models.CensorKindEmoji,
		Emoji:  emoji,
		X:      50 - DefaultSizePct/2,
		Y:      50 - DefaultSizePct/2,
		Width:  DefaultSizePct,
		Height: DefaultSizePct,
		Locked: true,
	}
}

// ClampPosition forces the censor inside [0,100] on both axes. It is applied
// after every mutation; a censor is never stored out of range.
func ClampPosition(c *models.Censor) {
	c.X = clamp(c.X, 0, 100-c.Width)
	c.Y = clamp(c.Y, 0, 100-c.Height)
}

// Normalize clamps size then position so an arbitrary censor (e.g. from an
// admin request body) satisfies the storage invariants.
func Normalize(c *models.Censor) {
	if c.Kind == "" {
		c.Kind = models.CensorKindEmoji
	}
	c.Width = clamp(c.Width, MinSizePct, 100)
	c.Height = clamp(c.Height, MinSizePct, 100)
	ClampPosition(c)
}

// DragState carries the percentage offset between the grab point and the
// censor origin, fixed at drag start so the grab point stays under the
// pointer for the whole drag.
type DragState struct {
	OffsetX float64
	OffsetY float64
}

// BeginDrag computes the drag offset from the pointer position at mousedown.
func BeginDrag(c models.Censor, p Point, box Box) DragState {
	if box.Zero() {
		return DragState{}
	}
	return DragState{
		OffsetX: p.X/box.Width*100 - c.X,
		OffsetY: p.Y/box.Height*100 - c.Y,
	}
}

// Move recomputes the censor origin for the current pointer position. The box
// is re-measured by the caller on every move, so a window resize mid-drag
// still yields correct percentages.
func (d DragState) Move(c *models.Censor, p Point, box Box) {
	if box.Zero() {
		return
	}
	c.X = clamp(p.X/box.Width*100-d.OffsetX, 0, 100-c.Width)
	c.Y = clamp(p.Y/box.Height*100-d.OffsetY, 0, 100-c.Height)
}

// Resize grows the censor by a pixel delta converted to percentages of the
// box, holding the 5% floor, then re-clamps the origin so the mask still fits.
func Resize(c *models.Censor, deltaXPx, deltaYPx float64, box Box) {
	if box.Zero() {
		return
	}
	c.Width = max(MinSizePct, c.Width+deltaXPx/box.Width*100)
	c.Height = max(MinSizePct, c.Height+deltaYPx/box.Height*100)
	if c.X+c.Width > 100 {
		c.X = 100 - c.Width
	}
	if c.Y+c.Height > 100 {
		c.Y = 100 - c.Height
	}
	ClampPosition(c)
}

// Place maps the censor's percentages onto a concrete box. Every renderer
// must use this: same input, same rect, on all surfaces.
func Place(c models.Censor, box Box) Rect {
	return Rect{
		Left:     c.X / 100 * box.Width,
		Top:      c.Y / 100 * box.Height,
		Width:    c.Width / 100 * box.Width,
		Height:   c.Height / 100 * box.Height,
		FontSize: min(c.Width, c.Height) * FontScale / 100 * box.Width,
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		// Oversized mask: pin to origin rather than produce a negative bound.
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
