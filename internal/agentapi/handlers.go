package agentapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finbridge/ledgerbridge/internal/engine"
	"github.com/finbridge/ledgerbridge/internal/queue"
)

// submitReq is the request body for POST /v1/mutations
type submitReq struct {
	Method   string          `json:"method"`
	Endpoint string          `json:"endpoint"`
	Body     json.RawMessage `json:"body,omitempty"`
}

// submitResp is the response body for POST /v1/mutations
type submitResp struct {
	Applied bool                  `json:"applied"`
	Record  *queue.MutationRecord `json:"record,omitempty"`
}

// Status handles GET /v1/status
// Returns the read-only snapshot driving the UI's connectivity indicator.
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Status())
}

// SubmitMutation handles POST /v1/mutations
// Attempts the write directly when connected; otherwise (or on direct
// failure) the mutation is queued and 202 is returned with the record.
func (s *Server) SubmitMutation(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{Error: "invalid json body"})
		return
	}

	rec, err := s.Engine.Submit(r.Context(), queue.Method(req.Method), req.Endpoint, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, queue.ErrInvalidMethod), errors.Is(err, queue.ErrEmptyEndpoint):
			writeJSON(w, http.StatusBadRequest, errResp{Error: err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, errResp{Error: err.Error()})
		}
		return
	}

	if rec == nil {
		writeJSON(w, http.StatusOK, submitResp{Applied: true})
		return
	}
	writeJSON(w, http.StatusAccepted, submitResp{Applied: false, Record: rec})
}

// TriggerReconcile handles POST /v1/reconcile
// Manually starts a drain; 409 when a run is already in flight.
func (s *Server) TriggerReconcile(w http.ResponseWriter, r *http.Request) {
	res, err := s.Engine.Reconcile(r.Context())
	if err != nil {
		if errors.Is(err, engine.ErrRunInProgress) {
			writeJSON(w, http.StatusConflict, errResp{Error: "reconciliation already in progress"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errResp{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, res)
}
