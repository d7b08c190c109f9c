// Package placeholder draws stand-in images for cars without a real photo.
//
// A placeholder is a light-gray canvas with the car's make and model centered
// in gray text and a thin border. Output is always JPEG, whatever name the
// caller gives the file.
package placeholder

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// heuristic metrics used when no font could be loaded
	charWidth  = 10
	textHeight = 20

	lineSpacing = 4
)

// Options controls the rendering
type Options struct {
	Width       int
	Height      int
	Background  color.RGBA
	TextColor   color.RGBA
	BorderColor color.RGBA
	BorderWidth int
	Quality     int
	Faces       []FaceSource
}

// DefaultOptions returns the 400x200 layout.
func DefaultOptions() Options {
	return Options{
		Width:       400,
		Height:      200,
		Background:  color.RGBA{0xf0, 0xf0, 0xf0, 0xff},
		TextColor:   color.RGBA{0x66, 0x66, 0x66, 0xff},
		BorderColor: color.RGBA{0xcc, 0xcc, 0xcc, 0xff},
		BorderWidth: 2,
		Quality:     75,
		Faces:       DefaultFaces(DefaultFontPath, DefaultFontSize),
	}
}

// Renderer draws placeholders. The font chain is resolved once, when the
// renderer is created. A Renderer is not safe for concurrent use.
type Renderer struct {
	opts      Options
	face      font.Face
	faceName  string
	heuristic bool
}

// New resolves the font chain of opts and returns a renderer. Font failures
// are never returned; they are logged at debug level.
func New(opts Options, log zerolog.Logger) *Renderer {
	face, name, errs := resolveFace(opts.Faces)
	for _, err := range errs {
		log.Debug().Err(err).Msg("font source unavailable")
	}

	r := &Renderer{opts: opts, face: face, faceName: name}
	if face == nil {
		// Glyphs still need a face; only the layout uses the estimate.
		r.face = basicfont.Face7x13
		r.faceName = "none"
		r.heuristic = true
		log.Debug().Msg("no font available, using estimated text size")
	}
	return r
}

// FaceName names the font source in use, or "none" when metrics are estimated.
func (r *Renderer) FaceName() string { return r.faceName }

// Render draws label onto a new canvas.
func (r *Renderer) Render(label string) *image.RGBA {
	o := r.opts
	img := image.NewRGBA(image.Rect(0, 0, o.Width, o.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{o.Background}, image.Point{}, draw.Src)

	lines := strings.Split(label, "\n")
	w, h := r.measure(label, lines)
	x := floorDiv(o.Width-w, 2)
	y := floorDiv(o.Height-h, 2)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(o.TextColor),
		Face: r.face,
	}
	m := r.face.Metrics()
	ascent := m.Ascent.Ceil()
	step := m.Ascent.Ceil() + m.Descent.Ceil() + lineSpacing
	for i, line := range lines {
		d.Dot = fixed.P(x, y+ascent+i*step)
		d.DrawString(line)
	}

	drawBorder(img, o.BorderColor, o.BorderWidth)
	return img
}

// measure returns the size of the text block.
func (r *Renderer) measure(label string, lines []string) (int, int) {
	if r.heuristic {
		return utf8.RuneCountInString(label) * charWidth, textHeight
	}

	var w int
	for _, line := range lines {
		if lw := font.MeasureString(r.face, line).Ceil(); lw > w {
			w = lw
		}
	}
	m := r.face.Metrics()
	lineHeight := m.Ascent.Ceil() + m.Descent.Ceil()
	h := len(lines)*lineHeight + (len(lines)-1)*lineSpacing
	return w, h
}

// Encode writes img as JPEG.
func (r *Renderer) Encode(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: r.opts.Quality})
}

// Generate renders label and returns the JPEG bytes.
func (r *Renderer) Generate(label string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Encode(&buf, r.Render(label)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// drawBorder paints a rectangle of width bw along the canvas edge, inside the bounds.
func drawBorder(img *image.RGBA, c color.RGBA, bw int) {
	if bw <= 0 {
		return
	}
	b := img.Bounds()
	src := &image.Uniform{c}
	for _, rect := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+bw),
		image.Rect(b.Min.X, b.Max.Y-bw, b.Max.X, b.Max.Y),
		image.Rect(b.Min.X, b.Min.Y, b.Min.X+bw, b.Max.Y),
		image.Rect(b.Max.X-bw, b.Min.Y, b.Max.X, b.Max.Y),
	} {
		draw.Draw(img, rect.Intersect(b), src, image.Point{}, draw.Src)
	}
}

// floorDiv divides rounding toward negative infinity, so labels wider than
// the canvas stay centered.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
