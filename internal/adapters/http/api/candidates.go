package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	repository "github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
)

// CandidateDependencies defines the candidate operations the handlers use.
type CandidateDependencies interface {
	Candidates(ctx context.Context, f repository.CandidateFilter) ([]model.Candidate, error)
	Candidate(ctx context.Context, id int64) (model.Candidate, error)
	UpdateStatus(ctx context.Context, id int64, status string) (model.Candidate, error)
	UpdateNotes(ctx context.Context, id int64, notes string) (model.Candidate, error)
	Score(ctx context.Context, rec model.Record, positionTitle string) (model.Candidate, error)
}

// CandidatesHandler handles candidate requests.
type CandidatesHandler struct {
	deps CandidateDependencies
	rs   *responder
}

func newCandidatesHandler(deps CandidateDependencies, rs *responder) *CandidatesHandler {
	return &CandidatesHandler{deps: deps, rs: rs}
}

// candidateFilter reads position, status and limit from the query string.
func candidateFilter(r *http.Request) (repository.CandidateFilter, error) {
	q := r.URL.Query()
	f := repository.CandidateFilter{
		Position: q.Get("position"),
		Status:   model.Status(q.Get("status")),
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("%w: limit must be an integer", ErrBadRequest)
		}
		f.Limit = n
	}
	return f, nil
}

// HandleList handles GET /api/candidates requests.
func (h *CandidatesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_candidates"
	f, err := candidateFilter(r)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	out, err := h.deps.Candidates(r.Context(), f)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/candidates/{id} requests.
func (h *CandidatesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_candidate"
	id, err := pathID(r)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	c, err := h.deps.Candidate(r.Context(), id)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleUpdateStatus handles POST /api/candidates/{id}/status requests.
func (h *CandidatesHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_status"
	id, err := pathID(r)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := h.rs.check(&req); err != nil {
		if req.Status != "" {
			err = fmt.Errorf("%w: %q", model.ErrInvalidStatus, req.Status)
		}
		h.rs.fail(w, r, op, err)
		return
	}
	c, err := h.deps.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleUpdateNotes handles POST /api/candidates/{id}/notes requests.
func (h *CandidatesHandler) HandleUpdateNotes(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_notes"
	id, err := pathID(r)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	var req notesRequest
	if err := h.rs.decode(w, r, &req); err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	c, err := h.deps.UpdateNotes(r.Context(), id, req.Notes)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleScore handles POST /api/score requests.
func (h *CandidatesHandler) HandleScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.score"
	var req scoreRequest
	if err := h.rs.decode(w, r, &req); err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	rec := model.Record{
		Line:       1,
		Name:       req.Name,
		Email:      req.Email,
		Skills:     req.Skills,
		Experience: req.Experience,
	}
	c, err := h.deps.Score(r.Context(), rec, req.Position)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
