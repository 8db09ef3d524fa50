package handler

//go:generate mockgen -source=handler.go -destination=mocks/workflow-mocks.go -package=mocks Service

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landrec/internal/workflow/models"
	id "landrec/pkg/domain"
	dErrors "landrec/pkg/domain-errors"
	"landrec/pkg/platform/httputil"
	"landrec/pkg/requestcontext"
)

// Service defines the workflow operations exposed over HTTP.
type Service interface {
	CreateTransaction(ctx context.Context, cmd models.CreateTransactionCommand) (*models.Transaction, error)
	ResolveTransaction(ctx context.Context, ref string) (*models.Transaction, error)
	ExecuteWorkflowCommand(ctx context.Context, refs []string, cmd models.Command) ([]*models.Task, error)
	CurrentTask(ctx context.Context, transactionID id.TransactionID) (*models.Task, error)
	History(ctx context.Context, transactionID id.TransactionID) ([]*models.Task, error)
	NextStatuses(ctx context.Context, transactionID id.TransactionID) ([]models.Status, error)
}

// Handler serves transaction intake and workflow routing.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the transaction routes. Transactions are addressed by
// UUID or by public UID.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transactions", h.HandleCreateTransaction)
	r.Post("/transactions/workflow", h.HandleExecuteWorkflow)
	r.Get("/transactions/{id}", h.HandleGetTransaction)
	r.Get("/transactions/{id}/current-task", h.HandleCurrentTask)
	r.Get("/transactions/{id}/history", h.HandleHistory)
	r.Get("/transactions/{id}/next-statuses", h.HandleNextStatuses)
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

func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := httputil.DecodeAndPrepare(r, &req); err != nil {
		h.fail(w, r, "invalid transaction request", err)
		return
	}
	tr, err := h.service.CreateTransaction(r.Context(), req.ToCommand())
	if err != nil {
		h.fail(w, r, "create transaction failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, FromTransaction(tr))
}

func (h *Handler) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tr, err := h.service.ResolveTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "transaction lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTransaction(tr))
}

// HandleExecuteWorkflow applies one command to every listed transaction.
// Either every transaction passes the checks or none is touched; a failure
// while applying reports how many were already moved.
func (h *Handler) HandleExecuteWorkflow(w http.ResponseWriter, r *http.Request) {
	var req WorkflowRequest
	if err := httputil.DecodeAndPrepare(r, &req); err != nil {
		h.fail(w, r, "invalid workflow request", err)
		return
	}
	tasks, err := h.service.ExecuteWorkflowCommand(r.Context(), req.IDs, req.ToCommand())
	if err != nil {
		h.fail(w, r, "workflow command rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTasks(tasks))
}

func (h *Handler) HandleCurrentTask(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.resolve(w, r)
	if !ok {
		return
	}
	task, err := h.service.CurrentTask(r.Context(), tr.ID)
	if err != nil {
		h.fail(w, r, "current task lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromTask(task))
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.resolve(w, r)
	if !ok {
		return
	}
	tasks, err := h.service.History(r.Context(), tr.ID)
	if err != nil {
		h.fail(w, r, "history lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, HistoryResponse{
		TransactionUID: tr.UID,
		Tasks:          FromTasks(tasks).Tasks,
	})
}

func (h *Handler) HandleNextStatuses(w http.ResponseWriter, r *http.Request) {
	tr, ok := h.resolve(w, r)
	if !ok {
		return
	}
	statuses, err := h.service.NextStatuses(r.Context(), tr.ID)
	if err != nil {
		h.fail(w, r, "next statuses lookup failed", err)
		return
	}
	resp := NextStatusesResponse{Status: string(tr.Status), Next: make([]string, 0, len(statuses))}
	for _, s := range statuses {
		resp.Next = append(resp.Next, string(s))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) (*models.Transaction, bool) {
	tr, err := h.service.ResolveTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "transaction lookup failed", err)
		return nil, false
	}
	return tr, true
}
