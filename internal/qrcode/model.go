package qrcode

import (
	"encoding/base64"
	"time"
)

const dataURIPrefix = "data:image/png;base64,"

// StyleOptions is a validated create request. Shapes are lower-case names and
// colors are upper-case #RRGGBB.
type StyleOptions struct {
	URL       string
	DotStyle  string
	EyeStyle  string
	FillColor string
	BackColor string
}

// Record is a rendered code owned by one identity. Records are never updated
// in place.
type Record struct {
	ID        string
	OwnerID   string
	URL       string
	DotStyle  string
	EyeStyle  string
	FillColor string
	BackColor string
	Image     []byte
	CreatedAt time.Time
}

type recordView struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	DotStyle  string    `json:"dot_style"`
	EyeStyle  string    `json:"eye_style"`
	FillColor string    `json:"fill_color"`
	BackColor string    `json:"back_color"`
	QRCode    string    `json:"qr_code"`
	QRImage   string    `json:"qr_image"`
	CreatedAt time.Time `json:"created_at"`
}

func newRecordView(record Record) recordView {
	encoded := base64.StdEncoding.EncodeToString(record.Image)
	return recordView{
		ID:        record.ID,
		URL:       record.URL,
		DotStyle:  record.DotStyle,
		EyeStyle:  record.EyeStyle,
		FillColor: record.FillColor,
		BackColor: record.BackColor,
		QRCode:    dataURIPrefix + encoded,
		QRImage:   encoded,
		CreatedAt: record.CreatedAt,
	}
}

// DataURI embeds PNG bytes as a base64 data URI.
func DataURI(png []byte) string {
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png)
}
