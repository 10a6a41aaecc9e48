package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qr-serverless/internal/symbol"
)

func solidMatrix(t *testing.T, size int) symbol.Matrix {
	t.Helper()
	rows := make([][]bool, size)
	for y := range rows {
		rows[y] = make([]bool, size)
		for x := range rows[y] {
			rows[y][x] = true
		}
	}
	matrix, err := symbol.NewMatrix(rows)
	require.NoError(t, err)
	return matrix
}

func encodedMatrix(t *testing.T) symbol.Matrix {
	t.Helper()
	matrix, err := symbol.NewQREncoder().Encode("https://example.com", symbol.DefaultLevel)
	require.NoError(t, err)
	return matrix
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	renderer, err := NewRenderer(DefaultGeometry())
	require.NoError(t, err)
	return renderer
}

var blackOnWhite = Options{DotStyle: Square, EyeStyle: Square, FillColor: "#000000", BackColor: "#FFFFFF"}

func TestRender_IsValidPNGWithQuietZone(t *testing.T) {
	matrix := encodedMatrix(t)
	out, err := newTestRenderer(t).Render(matrix, blackOnWhite)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("\x89PNG\r\n\x1a\n")))

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	edge := (matrix.Size() + 2*DefaultBorder) * DefaultBoxSize
	assert.Equal(t, edge, img.Bounds().Dx())
	assert.Equal(t, edge, img.Bounds().Dy())

	white := color.RGBAModel.Convert(color.White)
	quiet := DefaultBorder * DefaultBoxSize
	for i := 0; i < quiet; i++ {
		assert.Equal(t, white, color.RGBAModel.Convert(img.At(i, i)))
		assert.Equal(t, white, color.RGBAModel.Convert(img.At(edge-1-i, edge-1-i)))
	}
	// First finder module is dark and sits right after the quiet zone.
	assert.Equal(t, color.RGBAModel.Convert(color.Black), color.RGBAModel.Convert(img.At(quiet, quiet)))
}

func TestRender_Deterministic(t *testing.T) {
	renderer := newTestRenderer(t)
	matrix := encodedMatrix(t)

	for _, dot := range Shapes {
		for _, eye := range Shapes {
			options := Options{DotStyle: dot, EyeStyle: eye, FillColor: "#1A2B3C", BackColor: "#F0F0F0"}
			first, err := renderer.Render(matrix, options)
			require.NoError(t, err)
			second, err := renderer.Render(matrix, options)
			require.NoError(t, err)
			assert.Equal(t, first, second, "dot=%s eye=%s", dot, eye)
		}
	}
}

func TestRasterize_EyeAndDotShapesAreIndependent(t *testing.T) {
	renderer := newTestRenderer(t)
	matrix := solidMatrix(t, 21)
	box := DefaultBoxSize
	offset := DefaultBorder * box

	// Module (0,0) is in the top-left finder; module (10,10) is data.
	corner := func(mx, my int) (int, int) { return offset + mx*box, offset + my*box }
	center := func(mx, my int) (int, int) { return offset + mx*box + box/2, offset + my*box + box/2 }

	img, err := renderer.Rasterize(matrix, Options{DotStyle: Square, EyeStyle: Circle, FillColor: "#000000", BackColor: "#FFFFFF"})
	require.NoError(t, err)

	x, y := corner(0, 0)
	assert.Equal(t, backIndex, img.ColorIndexAt(x, y), "circle eye leaves block corner empty")
	x, y = center(0, 0)
	assert.Equal(t, fillIndex, img.ColorIndexAt(x, y))
	x, y = corner(10, 10)
	assert.Equal(t, fillIndex, img.ColorIndexAt(x, y), "square dot fills block corner")

	for _, finder := range [][2]int{{20, 0}, {0, 20}} {
		x, y = corner(finder[0], finder[1])
		assert.Equal(t, backIndex, img.ColorIndexAt(x, y))
	}
	x, y = corner(20, 20)
	assert.Equal(t, fillIndex, img.ColorIndexAt(x, y), "bottom-right corner is data")

	img, err = renderer.Rasterize(matrix, Options{DotStyle: Gapped, EyeStyle: Square, FillColor: "#000000", BackColor: "#FFFFFF"})
	require.NoError(t, err)

	x, y = corner(0, 0)
	assert.Equal(t, fillIndex, img.ColorIndexAt(x, y))
	x, y = corner(10, 10)
	assert.Equal(t, backIndex, img.ColorIndexAt(x, y), "gapped dot leaves a margin")
	x, y = center(10, 10)
	assert.Equal(t, fillIndex, img.ColorIndexAt(x, y))
}

func TestRasterize_LightModulesUseBackColor(t *testing.T) {
	rows := make([][]bool, 21)
	for y := range rows {
		rows[y] = make([]bool, 21)
	}
	rows[10][10] = true
	matrix, err := symbol.NewMatrix(rows)
	require.NoError(t, err)

	img, err := newTestRenderer(t).Rasterize(matrix, Options{DotStyle: Square, EyeStyle: Square, FillColor: "#FF0000", BackColor: "#00FF00"})
	require.NoError(t, err)

	filled := 0
	for _, idx := range img.Pix {
		if idx == fillIndex {
			filled++
		}
	}
	assert.Equal(t, DefaultBoxSize*DefaultBoxSize, filled)
	assert.Equal(t, color.RGBA{R: 0xFF, A: 0xFF}, img.Palette[fillIndex])
	assert.Equal(t, color.RGBA{G: 0xFF, A: 0xFF}, img.Palette[backIndex])
}

func TestShapeMasks(t *testing.T) {
	geometry := DefaultGeometry()
	box := geometry.BoxSize
	count := func(mask []bool) int {
		n := 0
		for _, v := range mask {
			if v {
				n++
			}
		}
		return n
	}

	square := Square.mask(box, geometry)
	circle := Circle.mask(box, geometry)
	rounded := Rounded.mask(box, geometry)
	gapped := Gapped.mask(box, geometry)

	assert.Equal(t, box*box, count(square))
	assert.Equal(t, 64, count(gapped))
	assert.Less(t, count(circle), count(rounded))
	assert.Less(t, count(rounded), count(square))
	assert.False(t, rounded[0])
	assert.True(t, rounded[box/2])
}

func TestRender_Errors(t *testing.T) {
	renderer := newTestRenderer(t)
	matrix := solidMatrix(t, 21)

	tests := map[string]Options{
		"bad fill":  {DotStyle: Square, EyeStyle: Square, FillColor: "bad", BackColor: "#FFFFFF"},
		"bad back":  {DotStyle: Square, EyeStyle: Square, FillColor: "#000000", BackColor: "#FFF"},
		"bad dot":   {DotStyle: "star", EyeStyle: Square, FillColor: "#000000", BackColor: "#FFFFFF"},
		"empty eye": {DotStyle: Square, FillColor: "#000000", BackColor: "#FFFFFF"},
	}
	for name, options := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := renderer.Render(matrix, options)
			require.ErrorIs(t, err, ErrRender)
		})
	}

	_, err := renderer.Render(symbol.Matrix{}, blackOnWhite)
	require.ErrorIs(t, err, ErrRender)
}

func TestRender_RejectsOversizedImage(t *testing.T) {
	renderer, err := NewRenderer(Geometry{BoxSize: MaxBoxSize(4), Border: 4, RoundedRadius: 0.25, GapRatio: 0.8})
	require.NoError(t, err)

	_, err = renderer.Render(solidMatrix(t, 200), blackOnWhite)
	require.ErrorIs(t, err, ErrRender)
}

func TestMaxBoxSize_FitsLargestSymbol(t *testing.T) {
	for _, border := range []int{0, 4, 10} {
		box := MaxBoxSize(border)
		require.Positive(t, box)
		assert.LessOrEqual(t, (symbol.MaxSize+2*border)*box, MaxImageEdge)
		assert.Greater(t, (symbol.MaxSize+2*border)*(box+1), MaxImageEdge)
	}
}

func TestGeometry_Validate(t *testing.T) {
	assert.NoError(t, DefaultGeometry().Validate())

	for _, g := range []Geometry{
		{BoxSize: 0, Border: 4, RoundedRadius: 0.25, GapRatio: 0.8},
		{BoxSize: 10, Border: -1, RoundedRadius: 0.25, GapRatio: 0.8},
		{BoxSize: 10, Border: 4, RoundedRadius: 0.75, GapRatio: 0.8},
		{BoxSize: 10, Border: 4, RoundedRadius: 0.25, GapRatio: 0},
		{BoxSize: MaxBoxSize(4) + 1, Border: 4, RoundedRadius: 0.25, GapRatio: 0.8},
	} {
		_, err := NewRenderer(g)
		assert.Error(t, err, "%+v", g)
	}
}

func TestParseShapeAndColor(t *testing.T) {
	shape, err := ParseShape("")
	require.NoError(t, err)
	assert.Equal(t, Square, shape)

	shape, err = ParseShape("Circle")
	require.NoError(t, err)
	assert.Equal(t, Circle, shape)

	_, err = ParseShape("star")
	require.Error(t, err)

	rgba, err := ParseHex("#1a2B3c")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x1A, G: 0x2B, B: 0x3C, A: 0xFF}, rgba)

	normalized, err := NormalizeHex("#abcdef")
	require.NoError(t, err)
	assert.Equal(t, "#ABCDEF", normalized)

	for _, bad := range []string{"", "bad", "#FFF", "FFFFFF", "#GGGGGG", "#0000000", " #000000"} {
		assert.False(t, ValidHex(bad), bad)
	}
}
