package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"spendboard/internal/spending"
)

// WeatherOverlay is the optional top-margin reading. Icon may be nil, in
// which case only the temperature is drawn.
type WeatherOverlay struct {
	Temperature int
	Icon        image.Image
}

// Scene is everything one render needs besides layout and fonts.
type Scene struct {
	Labels    spending.Labels
	Weather   *WeatherOverlay
	Character image.Image
}

// Compositor draws scenes onto fresh canvases.
type Compositor struct {
	Layout Layout
	Fonts  *FontSet
}

// NewCompositor returns a Compositor; a nil font set means built-in faces.
func NewCompositor(layout Layout, fonts *FontSet) *Compositor {
	if fonts == nil {
		fonts = BuiltinFontSet()
	}
	return &Compositor{Layout: layout, Fonts: fonts}
}

// Render paints the scene in a single pass: background, character art,
// weather icon, temperature, then the three rows of text. The returned
// canvas is owned by the caller.
func (c *Compositor) Render(scene Scene) *image.Gray {
	l := c.Layout
	canvas := image.NewGray(image.Rect(0, 0, l.Width, l.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Gray{Y: l.Background}), image.Point{}, draw.Src)

	if scene.Character != nil {
		c.drawCharacter(canvas, scene.Character)
	}
	if scene.Weather != nil {
		c.drawWeather(canvas, *scene.Weather)
	}

	center := l.Width / 2
	for _, row := range l.Rows {
		c.drawCentered(canvas, row.Title, Label, center, row.Y)
		c.drawCentered(canvas, scene.Labels.Get(row.Window), row.AmountRole, center, row.Y+row.AmountOffset)
	}
	return canvas
}

func (c *Compositor) drawCharacter(canvas *image.Gray, art image.Image) {
	cl := c.Layout.Character
	b := art.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || cl.Height <= 0 {
		return
	}
	width := cl.Height * b.Dx() / b.Dy()
	if width == 0 {
		return
	}
	scaled := scale(toNRGBA(art), width, cl.Height)
	at := image.Pt((c.Layout.Width-width)/2, c.Layout.Height-cl.Height+cl.BottomOverflow)
	blendOnto(canvas, scaled, at, cl.OpacityPercent)
}

func (c *Compositor) drawWeather(canvas *image.Gray, w WeatherOverlay) {
	wl := c.Layout.Weather
	face := c.Fonts.Face(Annotation)
	text := fmt.Sprintf("%d°", w.Temperature)

	textX := c.Layout.Width - wl.RightPadding - inkWidth(face, text)
	if w.Icon != nil && wl.IconSize > 0 {
		icon := scale(invert(toNRGBA(w.Icon)), wl.IconSize, wl.IconSize)
		blendOnto(canvas, icon, image.Pt(textX-wl.IconSize-wl.IconGap, wl.IconY), 100)
	}
	c.drawText(canvas, text, Annotation, textX, wl.TextY)
}

func (c *Compositor) drawCentered(canvas *image.Gray, text string, r Role, centerX, y int) {
	x := centerX - inkWidth(c.Fonts.Face(r), text)/2
	c.drawText(canvas, text, r, x, y)
}

// drawText places text with its ascender line at y.
func (c *Compositor) drawText(canvas *image.Gray, text string, r Role, x, y int) {
	face := c.Fonts.Face(r)
	d := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(color.Gray{Y: c.Layout.Levels[r]}),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// inkWidth measures the painted extent of text, not its advance.
func inkWidth(face font.Face, text string) int {
	bounds, _ := font.BoundString(face, text)
	return (bounds.Max.X - bounds.Min.X).Ceil()
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// invert flips the color channels and keeps alpha unchanged.
func invert(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(src.Rect)
	for i := 0; i+3 < len(src.Pix); i += 4 {
		dst.Pix[i] = 255 - src.Pix[i]
		dst.Pix[i+1] = 255 - src.Pix[i+1]
		dst.Pix[i+2] = 255 - src.Pix[i+2]
		dst.Pix[i+3] = src.Pix[i+3]
	}
	return dst
}

func scale(src *image.NRGBA, w, h int) *image.NRGBA {
	if src.Rect.Dx() == w && src.Rect.Dy() == h {
		return src
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

// luma uses the ITU-R 601-2 weights in 16.16 fixed point.
func luma(r, g, b uint8) uint32 {
	return (19595*uint32(r) + 38470*uint32(g) + 7471*uint32(b) + 1<<15) >> 16
}

// blendOnto alpha-composites src over dst at the given offset. The source
// alpha is scaled by opacityPercent (truncating); anything outside dst is
// clipped.
func blendOnto(dst *image.Gray, src *image.NRGBA, at image.Point, opacityPercent int) {
	if opacityPercent <= 0 {
		return
	}
	if opacityPercent > 100 {
		opacityPercent = 100
	}
	area := src.Rect.Add(at).Intersect(dst.Rect)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			si := src.PixOffset(x-at.X, y-at.Y)
			a := uint32(src.Pix[si+3]) * uint32(opacityPercent) / 100
			if a == 0 {
				continue
			}
			s := luma(src.Pix[si], src.Pix[si+1], src.Pix[si+2])
			di := dst.PixOffset(x, y)
			d := uint32(dst.Pix[di])
			dst.Pix[di] = uint8((s*a + d*(255-a) + 127) / 255)
		}
	}
}
