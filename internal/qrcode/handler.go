package qrcode

import (
	"errors"
	"net/http"

	"qr-serverless/internal/auth"
	"qr-serverless/internal/httpx"
	"qr-serverless/internal/observability"
)

type Handler struct {
	service       *Service
	authenticator *auth.Authenticator
	validator     *Validator
	logger        *observability.Logger
}

func NewHandler(service *Service, authenticator *auth.Authenticator, logger *observability.Logger) *Handler {
	return &Handler{
		service:       service,
		authenticator: authenticator,
		validator:     NewValidator(),
		logger:        logger,
	}
}

type deleteResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// Create validates the request before authenticating it, so a malformed
// request is rejected without a token lookup.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "invalid json body")
		return
	}
	if body.URL == "" {
		body.URL = r.URL.Query().Get("url")
	}

	options, err := h.validator.Validate(body)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	identity, err := h.authenticator.Authenticate(r)
	if err != nil {
		h.authenticator.WriteFailure(w, r, err)
		return
	}

	record, err := h.service.Create(r.Context(), identity.ID, options)
	if err != nil {
		event := "qr_persist_failed"
		if errors.Is(err, ErrRender) {
			event = "qr_render_failed"
		}
		observability.ReportError(h.logger, event, err, map[string]any{
			"owner_id":  identity.ID,
			"dot_style": options.DotStyle,
			"eye_style": options.EyeStyle,
		})
		httpx.WriteInternal(w)
		return
	}

	h.logger.Info("qr_created", map[string]any{"id": record.ID, "owner_id": identity.ID})
	httpx.WriteJSON(w, http.StatusOK, newRecordView(record))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteInternal(w)
		return
	}

	records, err := h.service.List(r.Context(), identity.ID)
	if err != nil {
		observability.ReportError(h.logger, "qr_list_failed", err, map[string]any{"owner_id": identity.ID})
		httpx.WriteInternal(w)
		return
	}

	views := make([]recordView, 0, len(records))
	for _, record := range records {
		views = append(views, newRecordView(record))
	}
	httpx.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteInternal(w)
		return
	}

	record, err := h.service.Get(r.Context(), identity.ID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "qr code not found")
			return
		}
		observability.ReportError(h.logger, "qr_get_failed", err, map[string]any{"owner_id": identity.ID})
		httpx.WriteInternal(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, newRecordView(record))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteInternal(w)
		return
	}

	id := r.PathValue("id")
	if err := h.service.Delete(r.Context(), identity.ID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, "qr code not found")
			return
		}
		observability.ReportError(h.logger, "qr_delete_failed", err, map[string]any{"owner_id": identity.ID})
		httpx.WriteInternal(w)
		return
	}

	h.logger.Info("qr_deleted", map[string]any{"id": id, "owner_id": identity.ID})
	httpx.WriteJSON(w, http.StatusOK, deleteResponse{Status: "deleted", ID: id})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		httpx.WriteError(w, http.StatusBadRequest, validationErr.Reason, validationErr.Message)
		return
	}
	httpx.WriteError(w, http.StatusBadRequest, httpx.CodeInvalidRequest, "invalid request")
}
