package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"landrec/internal/registration/models"
	"landrec/internal/registration/tract"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	"landrec/pkg/platform/httputil"
	"landrec/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/registration-mocks.go -package=mocks Service,TransactionResolver

// Service defines the registration operations exposed over HTTP.
type Service interface {
	CreateLandRecord(ctx context.Context, cmd models.CreateLandRecordCommand) (*models.LandRecordState, error)
	GetLandRecord(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecordState, error)
	Execute(ctx context.Context, landRecordID id.LandRecordID, cmd *models.RegistrationCommand) (*models.LandRecordState, error)
	RemoveRecordingAct(ctx context.Context, landRecordID id.LandRecordID, actID id.RecordingActID) (*models.LandRecordState, error)
	ChangeRecordingActType(ctx context.Context, actID id.RecordingActID, newType string) (*models.LandRecordState, error)
	Close(ctx context.Context, landRecordID id.LandRecordID, cmd models.CloseCommand) (*models.LandRecordState, error)
	Open(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecordState, error)
	RemoveSignature(ctx context.Context, landRecordID id.LandRecordID) (*models.LandRecordState, error)
	GetResource(ctx context.Context, resourceID id.ResourceID) (*models.Resource, error)
	MergeResource(ctx context.Context, resourceID, intoID id.ResourceID) (*models.Resource, error)
	GetTractIndex(ctx context.Context, resourceID id.ResourceID, full bool) ([]tract.Entry, error)
	GetTractIndexUntil(ctx context.Context, resourceID id.ResourceID, breakAct id.RecordingActID, includeBreak bool) ([]tract.Entry, error)
	CreateRecordingBook(ctx context.Context, cmd models.CreateBookCommand) (*models.RecordingBook, error)
	GetRecordingBook(ctx context.Context, bookID id.BookID) (*models.RecordingBook, error)
}

// TransactionResolver turns a transaction UUID or UID into its ID.
type TransactionResolver interface {
	ResolveTransactionID(ctx context.Context, ref string) (id.TransactionID, error)
}

// Handler wires land record, resource and book endpoints to the registration service.
type Handler struct {
	service      Service
	transactions TransactionResolver
	logger       *slog.Logger
}

func New(service Service, transactions TransactionResolver, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		transactions: transactions,
		logger:       logger,
	}
}

// Register mounts the registration routes. Book management goes through
// admin, which guards office configuration.
func (h *Handler) Register(r chi.Router, admin func(http.Handler) http.Handler) {
	r.Post("/transactions/{id}/land-record", h.HandleCreateLandRecord)

	r.Get("/land-records/{id}", h.HandleGetLandRecord)
	r.Post("/land-records/{id}/recording-acts", h.HandleCreateRecordingAct)
	r.Delete("/land-records/{id}/recording-acts/{actID}", h.HandleRemoveRecordingAct)
	r.Post("/land-records/{id}/close", h.HandleClose)
	r.Post("/land-records/{id}/open", h.HandleOpen)
	r.Post("/land-records/{id}/remove-signature", h.HandleRemoveSignature)

	r.Patch("/recording-acts/{id}/type", h.HandleChangeRecordingActType)

	r.Get("/resources/{id}", h.HandleGetResource)
	r.Post("/resources/{id}/merge", h.HandleMergeResource)
	r.Get("/resources/{id}/tract", h.HandleTractIndex)

	r.Get("/books/{id}", h.HandleGetBook)
	r.With(admin).Post("/books", h.HandleCreateBook)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"path", r.URL.Path,
		"error", err,
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) writeState(w http.ResponseWriter, status int, state *models.LandRecordState) {
	httputil.WriteJSON(w, status, FromLandRecordState(state))
}

// HandleCreateLandRecord handles POST /transactions/{id}/land-record.
func (h *Handler) HandleCreateLandRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transactionID, err := h.transactions.ResolveTransactionID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "transaction lookup failed", err)
		return
	}
	var req CreateLandRecordRequest
	if err := httputil.DecodeAndPrepare(r, &req); err != nil {
		h.fail(w, r, "invalid land record request", err)
		return
	}
	state, err := h.service.CreateLandRecord(ctx, req.ToCommand(transactionID))
	if err != nil {
		h.fail(w, r, "create land record failed", err)
		return
	}
	h.writeState(w, http.StatusCreated, state)
}

// HandleGetLandRecord handles GET /land-records/{id}.
func (h *Handler) HandleGetLandRecord(w http.ResponseWriter, r *http.Request) {
	landRecordID, err := id.ParseLandRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := h.service.GetLandRecord(r.Context(), landRecordID)
	if err != nil {
		h.fail(w, r, "get land record failed", err)
		return
	}
	h.writeState(w, http.StatusOK, state)
}

// HandleCreateRecordingAct handles POST /land-records/{id}/recording-acts.
func (h *Handler) HandleCreateRecordingAct(w http.ResponseWriter, r *http.Request) {
	landRecordID, err := id.ParseLandRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req RecordingActRequest
	if err := httputil.DecodeAndPrepare(r, &req); err != nil {
		h.fail(w, r, "invalid recording act request", err)
		return
	}
	cmd := req.ToCommand()
	state, err := h.service.Execute(r.Context(), landRecordID, &cmd)
	if err != nil {
		h.fail(w, r, "recording act rejected", err)
		return
	}
	h.writeState(w, http.StatusCreated, state)
}

// HandleRemoveRecordingAct handles DELETE /land-records/{id}/recording-acts/{actID}.
func (h *Handler) HandleRemoveRecordingAct(w http.ResponseWriter, r *http.Request) {
	landRecordID, err := id.ParseLandRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	actID, err := id.ParseRecordingActID(chi.URLParam(r, "actID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := h.service.RemoveRecordingAct(r.Context(), landRecordID, actID)
	if err != nil {
		h.fail(w, r, "recording act removal rejected", err)
		return
	}
	h.writeState(w, http.StatusOK, state)
}

// HandleChangeRecordingActType handles PATCH /recording-acts/{id}/type.
func (h *Handler) HandleChangeRecordingActType(w http.ResponseWriter, r *http.Request) {
	actID, err := id.ParseRecordingActID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req ChangeTypeRequest
	if err := httputil.DecodeAndPrepare(r, &req); err != nil {
		h.fail(w, r, "invalid change type request", err)
		return
	}
	state, err := h.service.ChangeRecordingActType(r.Context(), actID, req.Type)
	if err != nil {
		h.fail(w, r, "recording act type change rejected", err)
		return
	}
	h.writeState(w, http.StatusOK, state)
}

// HandleClose handles POST /land-records/{id}/close. The body is optional
// and only read when the office signs manually.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	landRecordID, err := id.ParseLandRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req CloseRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeAndPrepare(r, &req); err != nil {
			h.fail(w, r, "invalid close request", err)
			return
		}
	}
	state, err := h.service.Close(r.Context(), landRecordID, req.ToCommand())
	if err != nil {
		h.fail(w, r, "land record close rejected", err)
		return
	}
	h.writeState(w, http.StatusOK, state)
}

// HandleOpen handles POST /land-records/{id}/open.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "land record open rejected", h.service.Open)
}

// HandleRemoveSignature handles POST /land-records/{id}/remove-signature.
func (h *Handler) HandleRemoveSignature(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "signature removal rejected", h.service.RemoveSignature)
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, msg string, fn func(context.Context, id.LandRecordID) (*models.LandRecordState, error)) {
	landRecordID, err := id.ParseLandRecordID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	state, err := fn(r.Context(), landRecordID)
	if err != nil {
		h.fail(w, r, msg, err)
		return
	}
	h.writeState(w, http.StatusOK, state)
}

// HandleGetResource handles GET /resources/{id}.
func (h *Handler) HandleGetResource(w http.ResponseWriter, r *http.Request) {
	resourceID, err := id.ParseResourceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resource, err := h.service.GetResource(r.Context(), resourceID)
	if err != nil {
		h.fail(w, r, "get resource failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResource(resource))
}

// HandleMergeResource handles POST /resources/{id}/merge.
func (h *Handler) HandleMergeResource(w http.ResponseWriter, r *http.Request) {
	resourceID, err := id.ParseResourceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req MergeRequest
	if err := httputil.DecodeAndPrepare(r, &req); err != nil {
		h.fail(w, r, "invalid merge request", err)
		return
	}
	resource, err := h.service.MergeResource(r.Context(), resourceID, req.into)
	if err != nil {
		h.fail(w, r, "resource merge rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromResource(resource))
}

// HandleTractIndex handles GET /resources/{id}/tract?until=&include=&full=.
func (h *Handler) HandleTractIndex(w http.ResponseWriter, r *http.Request) {
	resourceID, err := id.ParseResourceID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	q := r.URL.Query()
	full, err := parseFlag(q.Get("full"), "full")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var entries []tract.Entry
	if until := q.Get("until"); until != "" {
		breakAct, err := id.ParseRecordingActID(until)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		include, err := parseFlag(q.Get("include"), "include")
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		entries, err = h.service.GetTractIndexUntil(r.Context(), resourceID, breakAct, include)
		if err != nil {
			h.fail(w, r, "tract index failed", err)
			return
		}
	} else {
		entries, err = h.service.GetTractIndex(r.Context(), resourceID, full)
		if err != nil {
			h.fail(w, r, "tract index failed", err)
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, FromTract(resourceID, entries))
}

func parseFlag(raw, name string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, dErrors.New(dErrors.CodeInvalidInput, name+" must be a boolean")
	}
	return v, nil
}

// HandleCreateBook handles POST /books.
func (h *Handler) HandleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if err := httputil.DecodeAndPrepare(r, &req); err != nil {
		h.fail(w, r, "invalid book request", err)
		return
	}
	book, err := h.service.CreateRecordingBook(r.Context(), req.ToCommand())
	if err != nil {
		h.fail(w, r, "create recording book failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromBook(book))
}

// HandleGetBook handles GET /books/{id}.
func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	bookID, err := id.ParseBookID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	book, err := h.service.GetRecordingBook(r.Context(), bookID)
	if err != nil {
		h.fail(w, r, "get recording book failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromBook(book))
}
