package api

import (
	"context"
	"net/http"

	"github.com/okian/smarthire/internal/domain/model"
)

// PositionDependencies defines the catalog operations the handlers use.
type PositionDependencies interface {
	Positions(ctx context.Context, activeOnly bool) ([]model.Position, error)
	Position(ctx context.Context, id int64) (model.Position, error)
	CreatePosition(ctx context.Context, p model.Position) (model.Position, error)
	UpdatePosition(ctx context.Context, p model.Position) (model.Position, error)
}

// PositionsHandler handles position catalog requests.
type PositionsHandler struct {
	deps PositionDependencies
	rs   *responder
}

func newPositionsHandler(deps PositionDependencies, rs *responder) *PositionsHandler {
	return &PositionsHandler{deps: deps, rs: rs}
}

func (req positionRequest) toModel(id int64, active bool) model.Position {
	if req.Active != nil {
		active = *req.Active
	}
	return model.Position{
		ID:             id,
		Title:          req.Title,
		Department:     req.Department,
		RequiredSkills: model.RequiredSkills(req.RequiredSkills),
		Active:         active,
	}
}

func (h *PositionsHandler) list(w http.ResponseWriter, r *http.Request, op string, activeOnly bool) {
	out, err := h.deps.Positions(r.Context(), activeOnly)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleList handles GET /api/positions requests.
func (h *PositionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "api.list_positions", false)
}

// HandleListActive handles GET /api/active-positions requests.
func (h *PositionsHandler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "api.list_active_positions", true)
}

// HandleGet handles GET /api/positions/{id} requests.
func (h *PositionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_position"
	id, err := pathID(r)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	p, err := h.deps.Position(r.Context(), id)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleCreate handles POST /api/positions requests. Positions are active
// unless the body says otherwise.
func (h *PositionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_position"
	var req positionRequest
	if err := h.rs.decode(w, r, &req); err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	p, err := h.deps.CreatePosition(r.Context(), req.toModel(0, true))
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleUpdate handles PUT /api/positions/{id} requests. An omitted active
// flag keeps the stored value.
func (h *PositionsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_position"
	id, err := pathID(r)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	var req positionRequest
	if err := h.rs.decode(w, r, &req); err != nil {
		h.rs.fail(w, r, op, err)
		return
	}

	active := true
	if req.Active == nil {
		current, err := h.deps.Position(r.Context(), id)
		if err != nil {
			h.rs.fail(w, r, op, err)
			return
		}
		active = current.Active
	}

	p, err := h.deps.UpdatePosition(r.Context(), req.toModel(id, active))
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
