package http

import (
	"errors"
	"net/http"

	"budgetbot/internal/core"
	applog "budgetbot/internal/log"
	"budgetbot/internal/services"
)

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id"`
}

type resetResponse struct {
	Reply string `json:"reply"`
}

type batchResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	UpdatedPlan *core.Plan `json:"updated_plan,omitempty"`
}

type categoryResponse struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	UpdatedCategory string `json:"updated_category"`
	PreviousAmount  int64  `json:"previous_amount"`
	UpdatedAmount   int64  `json:"updated_amount"`
	NewTotal        int64  `json:"new_total"`
}

type planResponse struct {
	*core.Document
	Version core.Version `json:"version"`
}

type fileInfoResponse struct {
	Exists  bool         `json:"exists"`
	Version core.Version `json:"version"`
	Backend string       `json:"backend,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	id, cookie := sessionID(r, req.SessionID)

	reply := s.engine.Reply(r.Context(), id, req.Message)

	resp := NewResponse().JSON(chatResponse{Reply: reply, SessionID: id})
	if cookie != nil {
		resp.Cookie(cookie)
	}
	resp.Write(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	id, cookie := sessionID(r, req.SessionID)

	reply := s.engine.Reset(r.Context(), id)
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Chat session reset",
		applog.FieldSessionID, id)

	resp := NewResponse().JSON(resetResponse{Reply: reply})
	if cookie != nil {
		resp.Cookie(cookie)
	}
	resp.Write(w)
}

func (s *Server) handleCurrentBudget(w http.ResponseWriter, r *http.Request) {
	doc, err := s.plans.Get(r.Context(), false)
	if err != nil {
		if errors.Is(err, core.ErrNoPlan) {
			NotFoundError("no budget plan found").Write(w)
			return
		}
		applog.FromContext(r.Context()).LogError(r.Context(), "Failed to load budget plan", err, applog.OpRead, nil)
		FromError(err).Write(w)
		return
	}
	NewResponse().JSON(doc).Write(w)
}

func (s *Server) handleBatchUpdate(w http.ResponseWriter, r *http.Request) {
	var req BatchUpdateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	res := s.engine.ApplyText(r.Context(), req.Text)
	NewResponse().JSON(batchResponse{
		Success:     res.Success,
		Message:     res.Message,
		UpdatedPlan: res.Plan,
	}).Write(w)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryUpdateRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	update := core.UpdateRequest{
		Category: req.Category,
		Amount:   *req.Amount,
		Action:   core.SetAbsolute,
	}
	out, err := s.budget.Apply(r.Context(), services.SourceAPI, update)
	if err != nil {
		fields := applog.NewFields().WithUpdate(update.Category, update.Amount, string(update.Action))
		applog.FromContext(r.Context()).LogError(r.Context(), "Category update failed", err, applog.OpUpdate, fields)
		FromError(err).Write(w)
		return
	}

	NewResponse().JSON(categoryResponse{
		Success:         true,
		Message:         "Budget updated successfully",
		UpdatedCategory: out.Request.Category,
		PreviousAmount:  out.Previous,
		UpdatedAmount:   out.Request.Amount,
		NewTotal:        out.Plan.TotalBudget,
	}).Write(w)
}

// handleGetPlan reads the store directly so callers see the committed state.
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Read(r.Context())
	if err != nil {
		if errors.Is(err, core.ErrNoPlan) {
			NotFoundError("No budget plan found. Please create one first.").Write(w)
			return
		}
		applog.FromContext(r.Context()).LogError(r.Context(), "Failed to read budget plan", err, applog.OpRead, nil)
		FromError(err).Write(w)
		return
	}
	version, err := s.store.Version(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Plan version unavailable", applog.FieldError, err)
	}
	NewResponse().JSON(planResponse{Document: doc, Version: version}).Write(w)
}

func (s *Server) handlePutPlan(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	doc, err := core.ParseDocument(body)
	if err != nil {
		if errors.Is(err, core.ErrNoPlan) {
			BadRequestError("budget_plan is required").Write(w)
			return
		}
		BadRequestError(err.Error()).Write(w)
		return
	}

	saved, err := s.budget.ReplaceDocument(r.Context(), doc)
	if err != nil {
		applog.FromContext(r.Context()).LogError(r.Context(), "Plan replace failed", err, applog.OpReplace, nil)
		FromError(err).Write(w)
		return
	}
	version, _ := s.store.Version(r.Context())
	NewResponse().JSON(planResponse{Document: saved, Version: version}).Write(w)
}

func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	info := fileInfoResponse{Backend: s.backend}

	_, err := s.store.Read(r.Context())
	switch {
	case err == nil:
		info.Exists = true
	case errors.Is(err, core.ErrNoPlan):
	default:
		applog.FromContext(r.Context()).LogError(r.Context(), "Failed to inspect budget plan", err, applog.OpRead, nil)
		FromError(err).Write(w)
		return
	}

	if info.Version, err = s.store.Version(r.Context()); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Plan version unavailable", applog.FieldError, err)
	}
	NewResponse().JSON(info).Write(w)
}
