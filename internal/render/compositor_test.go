package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"spendboard/internal/spending"
)

var sampleLabels = spending.Labels{Day: "$42", Week: "$412", Month: "$2,847"}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

// inkSpan returns the horizontal extent of non-background pixels in rows
// [y0, y1).
func inkSpan(img *image.Gray, bg uint8, y0, y1 int) (minX, maxX int, found bool) {
	minX, maxX = img.Rect.Max.X, -1
	for y := y0; y < y1; y++ {
		for x := 0; x < img.Rect.Dx(); x++ {
			if img.GrayAt(x, y).Y != bg {
				found = true
				minX = min(minX, x)
				maxX = max(maxX, x)
			}
		}
	}
	return minX, maxX, found
}

func TestRenderTotalsOnly(t *testing.T) {
	l := DefaultLayout()
	img := NewCompositor(l, nil).Render(Scene{Labels: sampleLabels})

	if img.Rect.Dx() != 1072 || img.Rect.Dy() != 1448 {
		t.Fatalf("canvas is %v", img.Rect)
	}

	// Outside the three text blocks the background is untouched.
	for y := 0; y < img.Rect.Dy(); y++ {
		if y >= 330 && y < 800 {
			continue
		}
		for x := 0; x < img.Rect.Dx(); x++ {
			if v := img.GrayAt(x, y).Y; v != l.Background {
				t.Fatalf("pixel (%d,%d) = %d, want background %d", x, y, v, l.Background)
			}
		}
	}

	// Every line is present and horizontally centered.
	for _, row := range l.Rows {
		for _, y := range []int{row.Y, row.Y + row.AmountOffset} {
			minX, maxX, found := inkSpan(img, l.Background, y, y+20)
			if !found {
				t.Fatalf("row %s: no ink at y=%d", row.Title, y)
			}
			if mid := (minX + maxX) / 2; mid < l.Width/2-8 || mid > l.Width/2+8 {
				t.Errorf("row %s at y=%d centered on %d, want ~%d", row.Title, y, mid, l.Width/2)
			}
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	scene := Scene{
		Labels:    sampleLabels,
		Weather:   &WeatherOverlay{Temperature: 68, Icon: solid(16, 16, color.NRGBA{255, 255, 255, 200})},
		Character: solid(40, 80, color.NRGBA{30, 90, 160, 255}),
	}
	c := NewCompositor(DefaultLayout(), nil)

	first, d1, err := EncodeBytes(c.Render(scene))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	second, d2, err := EncodeBytes(c.Render(scene))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if d1 != d2 || !bytes.Equal(first, second) {
		t.Fatalf("renders differ: %s vs %s", d1, d2)
	}
}

func TestRenderWeatherIconInverted(t *testing.T) {
	l := DefaultLayout()
	white := solid(l.Weather.IconSize, l.Weather.IconSize, color.NRGBA{255, 255, 255, 255})
	img := NewCompositor(l, nil).Render(Scene{
		Labels:  sampleLabels,
		Weather: &WeatherOverlay{Temperature: 72, Icon: white},
	})

	textX := l.Width - l.Weather.RightPadding - inkWidth(BuiltinFontSet().Face(Annotation), "72°")
	iconX := textX - l.Weather.IconSize - l.Weather.IconGap
	cx, cy := iconX+l.Weather.IconSize/2, l.Weather.IconY+l.Weather.IconSize/2
	if v := img.GrayAt(cx, cy).Y; v != 0 {
		t.Fatalf("icon center = %d, want 0 (white artwork inverted to black)", v)
	}
	if _, _, found := inkSpan(img, l.Background, l.Weather.TextY, l.Weather.TextY+15); !found {
		t.Fatalf("temperature text missing")
	}
}

func TestRenderWeatherWithoutIcon(t *testing.T) {
	l := DefaultLayout()
	img := NewCompositor(l, nil).Render(Scene{
		Labels:  sampleLabels,
		Weather: &WeatherOverlay{Temperature: -3},
	})
	minX, _, found := inkSpan(img, l.Background, 0, 100)
	if !found {
		t.Fatalf("temperature text missing")
	}
	if minX < l.Width/2 {
		t.Fatalf("temperature should be right-aligned, starts at %d", minX)
	}
}

func TestRenderCharacterBlend(t *testing.T) {
	l := DefaultLayout()
	art := solid(175, 350, color.NRGBA{0, 0, 0, 255})
	img := NewCompositor(l, nil).Render(Scene{Labels: sampleLabels, Character: art})

	// Centered and pinned to the bottom with a 32 px overflow.
	width := 175
	x0 := (l.Width - width) / 2
	y0 := l.Height - l.Character.Height + l.Character.BottomOverflow

	// alpha 255 at 70% -> 178; (0*178 + 232*77 + 127) / 255 = 70
	if v := img.GrayAt(x0+width/2, y0+100).Y; v != 70 {
		t.Fatalf("blended pixel = %d, want 70", v)
	}
	if v := img.GrayAt(x0-1, y0+100).Y; v != l.Background {
		t.Fatalf("pixel left of art = %d, want background", v)
	}
	if v := img.GrayAt(x0+width/2, y0-1).Y; v != l.Background {
		t.Fatalf("pixel above art = %d, want background", v)
	}
}

func TestRenderCharacterScaledToHeight(t *testing.T) {
	l := DefaultLayout()
	art := solid(100, 200, color.NRGBA{0, 0, 0, 255})
	img := NewCompositor(l, nil).Render(Scene{Labels: sampleLabels, Character: art})

	// 350 px tall keeps the 1:2 aspect, so 175 px wide.
	x0 := (l.Width - 175) / 2
	y0 := l.Height - l.Character.Height + l.Character.BottomOverflow
	if v := img.GrayAt(x0+87, y0+175).Y; v < 69 || v > 71 {
		t.Fatalf("scaled art center = %d, want ~70", v)
	}
	if v := img.GrayAt(x0-2, y0+175).Y; v != l.Background {
		t.Fatalf("pixel left of scaled art = %d", v)
	}
	if v := img.GrayAt(x0+175+1, y0+175).Y; v != l.Background {
		t.Fatalf("pixel right of scaled art = %d", v)
	}
}

func TestRenderTextDrawnOverArtwork(t *testing.T) {
	l := Layout{
		Width:      200,
		Height:     200,
		Background: 232,
		Sizes:      DefaultSizes(),
		Levels:     DefaultLevels(),
		Rows: []Row{
			{Window: spending.Day, Title: "DAY", Y: 50, AmountOffset: 45, AmountRole: Small},
		},
		Character: CharacterLayout{Height: 200, OpacityPercent: 100},
	}
	art := solid(200, 200, color.NRGBA{255, 255, 255, 255})
	img := NewCompositor(l, nil).Render(Scene{Labels: sampleLabels, Character: art})

	if v := img.GrayAt(0, 0).Y; v != 255 {
		t.Fatalf("artwork not painted: %d", v)
	}
	darkest := uint8(255)
	for y := 50; y < 64; y++ {
		for x := 0; x < l.Width; x++ {
			darkest = min(darkest, img.GrayAt(x, y).Y)
		}
	}
	if darkest != l.Levels[Label] {
		t.Fatalf("label level = %d, want %d on top of artwork", darkest, l.Levels[Label])
	}
}

func TestInvertKeepsAlpha(t *testing.T) {
	src := solid(2, 2, color.NRGBA{10, 20, 30, 77})
	out := invert(src)
	if got := out.NRGBAAt(1, 1); got != (color.NRGBA{245, 235, 225, 77}) {
		t.Fatalf("invert = %v", got)
	}
	if src.NRGBAAt(1, 1).R != 10 {
		t.Fatalf("invert must not modify its input")
	}
}

func TestEncodeWritesGrayPNG(t *testing.T) {
	img := NewCompositor(DefaultLayout(), nil).Render(Scene{Labels: sampleLabels})
	data, digest, err := EncodeBytes(img)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(digest) != 64 {
		t.Fatalf("digest %q", digest)
	}

	path := filepath.Join(t.TempDir(), "display.png")
	if err := WriteFile(path, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	gray, ok := decoded.(*image.Gray)
	if !ok {
		t.Fatalf("decoded %T, want *image.Gray", decoded)
	}
	if !bytes.Equal(gray.Pix, img.Pix) {
		t.Fatalf("round trip changed pixels")
	}
}

func TestWriteFileUnwritableDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "display.png")
	if err := WriteFile(path, []byte("x")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestIconTableLookup(t *testing.T) {
	table := DefaultIconTable()
	tests := []struct {
		code  int
		isDay bool
		want  string
	}{
		{0, true, "sunny.png"},
		{0, false, "clear-night.png"},
		{2, false, "partly-cloudy-night.png"},
		{3, false, "cloudy.png"},
		{48, true, "humidity.png"},
		{65, true, "heavy_rain.png"},
		{86, false, "snow.png"},
		{99, true, "severe_thunderstorm.png"},
		{1000, true, "sunny.png"},
		{1000, false, "clear-night.png"},
	}
	for _, tt := range tests {
		if got := table.Lookup(tt.code, tt.isDay); got != tt.want {
			t.Errorf("Lookup(%d, %v) = %q, want %q", tt.code, tt.isDay, got, tt.want)
		}
	}
}
