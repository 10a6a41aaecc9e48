// Package render rasterizes a module matrix into a styled PNG.
//
// Each module occupies a BoxSize x BoxSize pixel block and the symbol is
// surrounded by Border light modules. Modules inside the three finder
// patterns are drawn with the eye shape, every other dark module with the dot
// shape. Output is byte-for-byte deterministic for identical inputs.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"qr-serverless/internal/symbol"
)

const (
	DefaultBoxSize       = 10
	DefaultBorder        = 4
	DefaultRoundedRadius = 0.25
	DefaultGapRatio      = 0.8

	// MaxImageEdge bounds the rendered image edge in pixels.
	MaxImageEdge = 8192
)

const (
	backIndex uint8 = iota
	fillIndex
)

var ErrRender = errors.New("render qr image")

type Geometry struct {
	BoxSize       int
	Border        int
	RoundedRadius float64
	GapRatio      float64
}

func DefaultGeometry() Geometry {
	return Geometry{
		BoxSize:       DefaultBoxSize,
		Border:        DefaultBorder,
		RoundedRadius: DefaultRoundedRadius,
		GapRatio:      DefaultGapRatio,
	}
}

// MaxBoxSize is the largest box size that keeps the biggest symbol with the
// given border within MaxImageEdge.
func MaxBoxSize(border int) int {
	return MaxImageEdge / (symbol.MaxSize + 2*border)
}

func (g Geometry) Validate() error {
	switch {
	case g.Border < 0:
		return fmt.Errorf("border must not be negative, got %d", g.Border)
	case g.BoxSize <= 0:
		return fmt.Errorf("box size must be positive, got %d", g.BoxSize)
	case g.BoxSize > MaxBoxSize(g.Border):
		return fmt.Errorf("box size must be at most %d for border %d, got %d", MaxBoxSize(g.Border), g.Border, g.BoxSize)
	case g.RoundedRadius < 0 || g.RoundedRadius > 0.5:
		return fmt.Errorf("rounded radius must be within [0, 0.5], got %g", g.RoundedRadius)
	case g.GapRatio <= 0 || g.GapRatio > 1:
		return fmt.Errorf("gap ratio must be within (0, 1], got %g", g.GapRatio)
	}
	return nil
}

type Options struct {
	DotStyle  Shape
	EyeStyle  Shape
	FillColor string
	BackColor string
}

type Renderer struct {
	geometry Geometry
	masks    map[Shape][]bool
}

func NewRenderer(geometry Geometry) (*Renderer, error) {
	if err := geometry.Validate(); err != nil {
		return nil, err
	}

	masks := make(map[Shape][]bool, len(Shapes))
	for _, shape := range Shapes {
		masks[shape] = shape.mask(geometry.BoxSize, geometry)
	}
	return &Renderer{geometry: geometry, masks: masks}, nil
}

func (r *Renderer) Geometry() Geometry {
	return r.geometry
}

// Render returns the PNG encoding of Rasterize. Every failure wraps ErrRender.
func (r *Renderer) Render(matrix symbol.Matrix, options Options) ([]byte, error) {
	img, err := r.Rasterize(matrix, options)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// Rasterize draws matrix into a two-color paletted image. Palette index 0 is
// the back color and index 1 the fill color.
func (r *Renderer) Rasterize(matrix symbol.Matrix, options Options) (*image.Paletted, error) {
	dotMask, ok := r.masks[options.DotStyle]
	if !ok {
		return nil, fmt.Errorf("%w: unknown dot style %q", ErrRender, options.DotStyle)
	}
	eyeMask, ok := r.masks[options.EyeStyle]
	if !ok {
		return nil, fmt.Errorf("%w: unknown eye style %q", ErrRender, options.EyeStyle)
	}
	fill, err := ParseHex(options.FillColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	back, err := ParseHex(options.BackColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	size := matrix.Size()
	if size == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrRender)
	}
	box := r.geometry.BoxSize
	modules := size + 2*r.geometry.Border
	if modules > MaxImageEdge/box {
		return nil, fmt.Errorf("%w: image edge %d modules exceeds limit", ErrRender, modules)
	}
	edge := modules * box

	// Pix starts zeroed, which is backIndex.
	img := image.NewPaletted(image.Rect(0, 0, edge, edge), color.Palette{back, fill})
	offset := r.geometry.Border * box

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if !matrix.Dark(x, y) {
				continue
			}
			mask := dotMask
			if matrix.IsFinder(x, y) {
				mask = eyeMask
			}
			r.stamp(img, offset+x*box, offset+y*box, mask)
		}
	}
	return img, nil
}

func (r *Renderer) stamp(img *image.Paletted, left, top int, mask []bool) {
	box := r.geometry.BoxSize
	for py := 0; py < box; py++ {
		row := img.PixOffset(left, top+py)
		for px := 0; px < box; px++ {
			if mask[py*box+px] {
				img.Pix[row+px] = fillIndex
			}
		}
	}
}
