package restserver

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/chrissnell/solarclear/internal/analysis"
	"github.com/chrissnell/solarclear/pkg/responseformat"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
	}
}

// parseFilter reads from, to, max_cloud and daylight from the query string
func parseFilter(req *http.Request) (analysis.Filter, error) {
	var f analysis.Filter
	q := req.URL.Query()

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return f, fmt.Errorf("invalid %s date %q, expected YYYY-MM-DD", p.name, v)
		}
		*p.dst = t
	}

	if v := q.Get("max_cloud"); v != "" {
		maxCloud, err := strconv.ParseFloat(v, 64)
		if err != nil || maxCloud < 0 {
			return f, fmt.Errorf("invalid max_cloud %q", v)
		}
		f.MaxCloud = &maxCloud
	}

	if v := q.Get("daylight"); v != "" {
		daylight, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("invalid daylight %q", v)
		}
		f.Daylight = daylight
	}

	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, fmt.Errorf("to is before from")
	}
	return f, nil
}

// GetRecords handles GET /api/v1/records
func (h *Handlers) GetRecords(w http.ResponseWriter, req *http.Request) {
	filter, err := parseFilter(req)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		return
	}

	runID, records, err := h.controller.Source.Latest(req.Context())
	if err != nil {
		h.controller.logger.Errorf("error loading records: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "could not load records")
		return
	}

	selected := analysis.Apply(records, filter)
	if err := h.formatter.WriteResponse(w, req, http.StatusOK, RecordsResponse{
		RunID:   runID,
		Count:   len(selected),
		Records: selected,
	}); err != nil {
		h.controller.logger.Errorf("error encoding records: %v", err)
	}
}

// GetSummary handles GET /api/v1/summary
func (h *Handlers) GetSummary(w http.ResponseWriter, req *http.Request) {
	filter, err := parseFilter(req)
	if err != nil {
		h.formatter.WriteError(w, req, http.StatusBadRequest, err.Error())
		return
	}

	runID, records, err := h.controller.Source.Latest(req.Context())
	if err != nil {
		h.controller.logger.Errorf("error loading records: %v", err)
		h.formatter.WriteError(w, req, http.StatusInternalServerError, "could not load records")
		return
	}

	summary := analysis.Summarize(analysis.Apply(records, filter))
	if err := h.formatter.WriteResponse(w, req, http.StatusOK, SummaryResponse{RunID: runID, Summary: summary}); err != nil {
		h.controller.logger.Errorf("error encoding summary: %v", err)
	}
}

// GetHealth handles GET /healthz. Any unhealthy storage backend turns the
// response into a 503.
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	resp := HealthResponse{Status: "healthy"}
	status := http.StatusOK

	if h.controller.Health != nil {
		resp.Storage = h.controller.Health.CheckHealth(req.Context())
		for _, hd := range resp.Storage {
			if hd.Status != "healthy" {
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}
	}

	h.formatter.WriteResponse(w, req, status, resp)
}
