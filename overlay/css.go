package overlay

import (
	"strconv"
	"strings"

	"github.com/Mbenve9198/exit-wounds/models"
)

// PositionStyle renders the percentage placement as CSS declarations. Both
// the reader payload and the email HTML embed this exact string, which is
// what keeps the two surfaces geometrically identical.
func PositionStyle(c models.Censor) string {
	var b strings.Builder
	b.WriteString("left:")
	b.WriteString(pct(c.X))
	b.WriteString("%;top:")
	b.WriteString(pct(c.Y))
	b.WriteString("%;width:")
	b.WriteString(pct(c.Width))
	b.WriteString("%;height:")
	b.WriteString(pct(c.Height))
	b.WriteString("%")
	return b.String()
}

// FontSizePx returns the glyph font size in pixels for a box of the given
// width, using the same proportional rule as Place.
func FontSizePx(c models.Censor, boxWidth float64) string {
	return pct(min(c.Width, c.Height)*FontScale/100*boxWidth) + "px"
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
