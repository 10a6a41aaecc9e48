package qrcode

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"qr-serverless/internal/httpx"
	"qr-serverless/internal/render"
)

// MaxURLBytes keeps every accepted URL encodable at the highest
// error-correction level.
const MaxURLBytes = 1024

// ValidationError carries the reason code reported to the client.
type ValidationError struct {
	Reason  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type createRequest struct {
	URL       string `json:"url"`
	DotStyle  string `json:"dot_style"`
	EyeStyle  string `json:"eye_style"`
	FillColor string `json:"fill_color"`
	BackColor string `json:"back_color"`
}

type styleInput struct {
	URL       string `validate:"required,weburl"`
	FillColor string `validate:"required,rgbhex"`
	BackColor string `validate:"required,rgbhex"`
	DotStyle  string `validate:"shape"`
	EyeStyle  string `validate:"shape"`
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	_ = validate.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return render.ValidHex(fl.Field().String())
	})
	_ = validate.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
		return isWebURL(fl.Field().String())
	})
	_ = validate.RegisterValidation("shape", func(fl validator.FieldLevel) bool {
		return render.Shape(fl.Field().String()).Valid()
	})
	return &Validator{validate: validate}
}

// Validate applies defaults and normalisation, then checks every field.
// Failures are *ValidationError.
func (v *Validator) Validate(req createRequest) (StyleOptions, error) {
	input := styleInput{
		URL:       strings.TrimSpace(req.URL),
		FillColor: strings.TrimSpace(req.FillColor),
		BackColor: strings.TrimSpace(req.BackColor),
		DotStyle:  defaultShape(req.DotStyle),
		EyeStyle:  defaultShape(req.EyeStyle),
	}

	if err := v.validate.Struct(&input); err != nil {
		return StyleOptions{}, toValidationError(err)
	}

	return StyleOptions{
		URL:       input.URL,
		DotStyle:  input.DotStyle,
		EyeStyle:  input.EyeStyle,
		FillColor: strings.ToUpper(input.FillColor),
		BackColor: strings.ToUpper(input.BackColor),
	}, nil
}

func defaultShape(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return string(render.Square)
	}
	return name
}

func isWebURL(raw string) bool {
	if len(raw) > MaxURLBytes {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}

func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Reason: httpx.CodeInvalidRequest, Field: "body", Message: "invalid request"}
	}

	switch field := fieldErrs[0]; field.Field() {
	case "URL":
		return &ValidationError{Reason: httpx.CodeBadURL, Field: "url", Message: "url must be an absolute http or https link"}
	case "FillColor":
		return &ValidationError{Reason: httpx.CodeBadColor, Field: "fill_color", Message: "fill_color must be #RRGGBB"}
	case "BackColor":
		return &ValidationError{Reason: httpx.CodeBadColor, Field: "back_color", Message: "back_color must be #RRGGBB"}
	case "DotStyle":
		return &ValidationError{Reason: httpx.CodeBadStyle, Field: "dot_style", Message: "dot_style must be one of square, rounded, circle, gapped"}
	case "EyeStyle":
		return &ValidationError{Reason: httpx.CodeBadStyle, Field: "eye_style", Message: "eye_style must be one of square, rounded, circle, gapped"}
	default:
		return &ValidationError{Reason: httpx.CodeInvalidRequest, Field: strings.ToLower(field.Field()), Message: "invalid value"}
	}
}
