package auth

import (
	"errors"
	"mime"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"qr-serverless/internal/httpx"
	"qr-serverless/internal/observability"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_.-]{3,32}$`)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

type Handler struct {
	service  *Service
	logger   *observability.Logger
	validate *validator.Validate
}

func NewHandler(service *Service, logger *observability.Logger) *Handler {
	validate := validator.New()
	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	})

	return &Handler{
		service:  service,
		logger:   logger,
		validate: validate,
	}
}

type signupRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "invalid json body")
		return
	}

	body.Username = strings.ToLower(strings.TrimSpace(body.Username))
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	if err := h.validate.Struct(&body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, signupValidationMessage(err))
		return
	}
	if len(body.Password) > maxPasswordBytes {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "password must be at most 72 bytes")
		return
	}

	tokens, err := h.service.Signup(r.Context(), body.Username, body.Email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUsernameTaken):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeUsernameTaken, "username already registered")
		case errors.Is(err, ErrEmailTaken):
			httpx.WriteError(w, http.StatusBadRequest, httpx.CodeEmailTaken, "email already registered")
		default:
			observability.ReportError(h.logger, "signup_failed", err, nil)
			httpx.WriteInternal(w)
		}
		return
	}

	h.logger.Info("user_signed_up", map[string]any{"username": body.Username})
	httpx.WriteJSON(w, http.StatusOK, tokens)
}

// Login reads credentials from a form body, or from JSON when the request
// declares it.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readLogin(w, r)
	if !ok {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "invalid login body")
		return
	}

	tokens, err := h.service.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidCredentials, "invalid credentials")
			return
		}
		observability.ReportError(h.logger, "login_failed", err, nil)
		httpx.WriteInternal(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) readLogin(w http.ResponseWriter, r *http.Request) (loginRequest, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body loginRequest
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			return loginRequest{}, false
		}
		return body, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, httpx.MaxJSONBodyBytes)
	if err := r.ParseForm(); err != nil {
		return loginRequest{}, false
	}
	return loginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}, true
}

func signupValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid signup body"
	}

	switch fieldErrs[0].Field() {
	case "Username":
		return "username must be 3-32 characters of a-z, 0-9, '_', '.', '-'"
	case "Email":
		return "email is invalid"
	case "Password":
		return "password is required"
	default:
		return "invalid signup body"
	}
}
