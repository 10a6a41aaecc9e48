// Package symbol adapts an external QR encoder to a plain module matrix.
package symbol

import (
	"errors"
	"fmt"

	qrencode "github.com/skip2/go-qrcode"
)

// Level is a QR error-correction level.
type Level int

const (
	LevelL Level = iota
	LevelM
	LevelQ
	LevelH
)

// DefaultLevel tolerates roughly 30% symbol damage.
const DefaultLevel = LevelH

// finderSize is the edge of a finder pattern in modules.
const finderSize = 7

// MaxSize is the module edge of a version 40 symbol, the largest QR code.
const MaxSize = 177

var ErrEncode = errors.New("encode symbol")

// Matrix is a square grid of modules without a quiet zone. Dark(x, y) is true
// for modules drawn in the fill color.
type Matrix struct {
	size int
	dark []bool
}

// NewMatrix copies rows into a Matrix. Rows must form a square.
func NewMatrix(rows [][]bool) (Matrix, error) {
	size := len(rows)
	if size == 0 {
		return Matrix{}, fmt.Errorf("%w: empty matrix", ErrEncode)
	}

	dark := make([]bool, 0, size*size)
	for y, row := range rows {
		if len(row) != size {
			return Matrix{}, fmt.Errorf("%w: row %d has %d modules, want %d", ErrEncode, y, len(row), size)
		}
		dark = append(dark, row...)
	}
	return Matrix{size: size, dark: dark}, nil
}

func (m Matrix) Size() int {
	return m.size
}

func (m Matrix) Dark(x, y int) bool {
	if x < 0 || y < 0 || x >= m.size || y >= m.size {
		return false
	}
	return m.dark[y*m.size+x]
}

// IsFinder reports whether the module lies inside one of the three 7x7
// finder patterns at the top-left, top-right and bottom-left corners.
func (m Matrix) IsFinder(x, y int) bool {
	if x < 0 || y < 0 || x >= m.size || y >= m.size || m.size < finderSize {
		return false
	}
	left := x < finderSize
	right := x >= m.size-finderSize
	top := y < finderSize
	bottom := y >= m.size-finderSize
	return (top && left) || (top && right) || (bottom && left)
}

// Encoder turns text into a module matrix at the given error-correction level.
type Encoder interface {
	Encode(text string, level Level) (Matrix, error)
}

// QREncoder is backed by github.com/skip2/go-qrcode.
type QREncoder struct{}

func NewQREncoder() QREncoder {
	return QREncoder{}
}

func (QREncoder) Encode(text string, level Level) (Matrix, error) {
	if text == "" {
		return Matrix{}, fmt.Errorf("%w: empty content", ErrEncode)
	}

	recovery, err := recoveryLevel(level)
	if err != nil {
		return Matrix{}, err
	}

	code, err := qrencode.New(text, recovery)
	if err != nil {
		return Matrix{}, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	code.DisableBorder = true

	return NewMatrix(code.Bitmap())
}

func recoveryLevel(level Level) (qrencode.RecoveryLevel, error) {
	switch level {
	case LevelL:
		return qrencode.Low, nil
	case LevelM:
		return qrencode.Medium, nil
	case LevelQ:
		return qrencode.High, nil
	case LevelH:
		return qrencode.Highest, nil
	default:
		return 0, fmt.Errorf("%w: unknown error-correction level %d", ErrEncode, level)
	}
}
