package overlay

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mbenve9198/exit-wounds/models"
)

func TestNewCensorDefaults(t *testing.T) {
	c := NewCensor("🔥")

	assert.True(t, strings.HasPrefix(c.ID, "censor-"))
	assert.Equal(t, models.CensorKindEmoji, c.Kind)
	assert.Equal(t, "🔥", c.Emoji)
	assert.Equal(t, 45.0, c.X)
	assert.Equal(t, 45.0, c.Y)
	assert.Equal(t, DefaultSizePct, c.Width)
	assert.Equal(t, DefaultSizePct, c.Height)
	assert.True(t, c.Locked)
}

func TestClampPosition(t *testing.T) {
	tests := []struct {
		name         string
		censor       models.Censor
		wantX, wantY float64
	}{
		{
			name:   "in range untouched",
			censor: models.Censor{X: 30, Y: 40, Width: 10, Height: 10},
			wantX:  30, wantY: 40,
		},
		{
			name:   "negative origin pinned to zero",
			censor: models.Censor{X: -5, Y: -20, Width: 10, Height: 10},
			wantX:  0, wantY: 0,
		},
		{
			name:   "right edge respects width",
			censor: models.Censor{X: 95, Y: 98, Width: 10, Height: 10},
			wantX:  90, wantY: 90,
		},
		{
			name:   "oversized mask pins to origin",
			censor: models.Censor{X: 50, Y: 50, Width: 120, Height: 120},
			wantX:  0, wantY: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ClampPosition(&tt.censor)
			assert.Equal(t, tt.wantX, tt.censor.X)
			assert.Equal(t, tt.wantY, tt.censor.Y)
		})
	}
}

func TestNormalize(t *testing.T) {
	c := models.Censor{Emoji: "🙈", X: 99, Y: -3, Width: 2, Height: 400}
	Normalize(&c)

	assert.Equal(t, models.CensorKindEmoji, c.Kind)
	assert.Equal(t, MinSizePct, c.Width)
	assert.Equal(t, 100.0, c.Height)
	assert.Equal(t, 95.0, c.X)
	assert.Equal(t, 0.0, c.Y)
	assert.LessOrEqual(t, c.X+c.Width, 100.0)
	assert.LessOrEqual(t, c.Y+c.Height, 100.0)
}

func TestDragKeepsGrabPointUnderPointer(t *testing.T) {
	box := Box{Width: 1000, Height: 800}
	c := models.Censor{X: 20, Y: 20, Width: 10, Height: 10}

	// Grab 30px into the mask (mask origin is at 200,160 px).
	grab := Point{X: 230, Y: 190}
	d := BeginDrag(c, grab, box)

	d.Move(&c, Point{X: 530, Y: 390}, box)

	// The grab point moved 300px right and 200px down; so did the origin.
	assert.InDelta(t, 50.0, c.X, 1e-9)
	assert.InDelta(t, 45.0, c.Y, 1e-9)
}

func TestMoveClampsAtEdges(t *testing.T) {
	box := Box{Width: 500, Height: 500}
	c := models.Censor{X: 45, Y: 45, Width: 10, Height: 10}
	d := BeginDrag(c, Point{X: 250, Y: 250}, box)

	d.Move(&c, Point{X: 10000, Y: -10000}, box)

	assert.Equal(t, 90.0, c.X)
	assert.Equal(t, 0.0, c.Y)
}

func TestZeroBoxIsANoOp(t *testing.T) {
	c := models.Censor{X: 45, Y: 45, Width: 10, Height: 10}
	orig := c

	d := BeginDrag(c, Point{X: 100, Y: 100}, Box{})
	d.Move(&c, Point{X: 200, Y: 200}, Box{})
	Resize(&c, 50, 50, Box{})

	assert.Equal(t, orig, c)
}

func TestResizeFloor(t *testing.T) {
	box := Box{Width: 1000, Height: 1000}
	c := models.Censor{X: 45, Y: 45, Width: 6, Height: 6}

	Resize(&c, -500, -500, box)

	assert.Equal(t, MinSizePct, c.Width)
	assert.Equal(t, MinSizePct, c.Height)
}

func TestResizePushesOriginBackInside(t *testing.T) {
	box := Box{Width: 1000, Height: 1000}
	c := models.Censor{X: 85, Y: 85, Width: 10, Height: 10}

	Resize(&c, 200, 200, box)

	assert.Equal(t, 30.0, c.Width)
	assert.Equal(t, 30.0, c.Height)
	assert.Equal(t, 70.0, c.X)
	assert.Equal(t, 70.0, c.Y)
}

func TestPlaceScalesWithBox(t *testing.T) {
	c := models.Censor{X: 45, Y: 45, Width: 10, Height: 10}

	small := Place(c, Box{Width: 300, Height: 300})
	assert.Equal(t, Rect{Left: 135, Top: 135, Width: 30, Height: 30, FontSize: 24}, small)

	large := Place(c, Box{Width: 600, Height: 600})
	assert.Equal(t, Rect{Left: 270, Top: 270, Width: 60, Height: 60, FontSize: 48}, large)

	// Doubling the box exactly doubles every dimension.
	assert.Equal(t, small.Left*2, large.Left)
	assert.Equal(t, small.FontSize*2, large.FontSize)
}

func TestPlaceFontUsesSmallerDimension(t *testing.T) {
	c := models.Censor{X: 0, Y: 0, Width: 40, Height: 10}
	r := Place(c, Box{Width: 100, Height: 100})
	assert.InDelta(t, 10*FontScale/100*100, r.FontSize, 1e-9)
}

func TestPositionStyle(t *testing.T) {
	c := models.Censor{X: 45, Y: 45.5, Width: 10, Height: 12.25}
	assert.Equal(t, "left:45%;top:45.5%;width:10%;height:12.25%", PositionStyle(c))
}

func TestFontSizePx(t *testing.T) {
	c := models.Censor{Width: 10, Height: 10}
	assert.Equal(t, "48px", FontSizePx(c, 600))
	assert.Equal(t, "24px", FontSizePx(c, 300))
}

func TestStyleMatchesPlace(t *testing.T) {
	// The CSS helpers and Place must agree: the percentage style rendered
	// into HTML produces the same pixels Place computes for the same box.
	c := models.Censor{X: 12.5, Y: 33, Width: 25, Height: 20}
	box := Box{Width: 600, Height: 400}

	r := Place(c, box)
	require.Equal(t, "96px", FontSizePx(c, box.Width))
	assert.InDelta(t, 96.0, r.FontSize, 1e-9)
	assert.Contains(t, PositionStyle(c), "left:12.5%")
	assert.InDelta(t, 12.5/100*box.Width, r.Left, 1e-9)
}
