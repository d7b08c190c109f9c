package placeholder

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// DefaultFontPath is the scalable font tried first.
const DefaultFontPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf"

// DefaultFontSize is the pixel size used for scalable fonts.
const DefaultFontSize = 24

// FaceSource is one step of the font fallback chain
type FaceSource interface {
	Name() string
	Face() (font.Face, error)
}

// DefaultFaces is the standard chain: the system font at size, then the
// built-in bitmap face.
func DefaultFaces(path string, size float64) []FaceSource {
	if path == "" {
		path = DefaultFontPath
	}
	if size <= 0 {
		size = DefaultFontSize
	}
	return []FaceSource{File(path, size), Basic()}
}

type fileSource struct {
	path string
	size float64
}

// File loads a TrueType/OpenType font from disk at size pixels.
func File(path string, size float64) FaceSource {
	return fileSource{path: path, size: size}
}

func (s fileSource) Name() string { return s.path }

func (s fileSource) Face() (font.Face, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	// 72 DPI makes Size a pixel size.
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    s.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

type basicSource struct{}

// Basic is the built-in 7x13 bitmap face.
func Basic() FaceSource { return basicSource{} }

func (basicSource) Name() string { return "basic" }

func (basicSource) Face() (font.Face, error) {
	return basicfont.Face7x13, nil
}

// FaceFunc adapts a function to FaceSource.
type FaceFunc struct {
	Label string
	Fn    func() (font.Face, error)
}

func (f FaceFunc) Name() string { return f.Label }

func (f FaceFunc) Face() (font.Face, error) { return f.Fn() }

var errNilFace = errors.New("no face returned")

// tryFace calls src and turns a panic into an error.
func tryFace(src FaceSource) (face font.Face, err error) {
	defer func() {
		if r := recover(); r != nil {
			face, err = nil, fmt.Errorf("%s: panic: %v", src.Name(), r)
		}
	}()
	face, err = src.Face()
	if err == nil && face == nil {
		err = errNilFace
	}
	return face, err
}

// resolveFace walks sources in order and returns the first usable face with
// its name. A nil face means every source failed; errs lists why.
func resolveFace(sources []FaceSource) (font.Face, string, []error) {
	var errs []error
	for _, src := range sources {
		face, err := tryFace(src)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		return face, src.Name(), errs
	}
	return nil, "", errs
}
