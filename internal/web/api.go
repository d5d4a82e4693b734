package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/where2work/internal/chart"
	"github.com/sells-group/where2work/internal/filter"
	"github.com/sells-group/where2work/internal/model"
	"github.com/sells-group/where2work/internal/store"
)

type companiesResponse struct {
	Version     string           `json:"version"`
	Selection   filter.Selection `json:"selection"`
	Metrics     filter.Metrics   `json:"metrics"`
	Companies   []model.Company  `json:"companies"`
	Shortlisted []string         `json:"shortlisted"`
}

type shortlistResponse struct {
	Count     int                    `json:"count"`
	Companies []model.ShortlistEntry `json:"companies"`
}

type addShortlistRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		zap.L().Warn("health: store ping failed", zap.Error(err))
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, s.source.Current().Options())
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	v, err := s.buildView(r.Context(), r)
	if err != nil {
		internalError(w, r, "load shortlist", err)
		return
	}

	shortlisted := make([]string, 0, len(v.Shortlist))
	for _, c := range v.Shortlist {
		shortlisted = append(shortlisted, c.LegalName)
	}
	companies := v.Filtered
	if companies == nil {
		companies = []model.Company{}
	}
	WriteJSON(w, http.StatusOK, companiesResponse{
		Version:     v.Dataset.Version,
		Selection:   v.Selection,
		Metrics:     v.Metrics,
		Companies:   companies,
		Shortlisted: shortlisted,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	v, err := s.buildView(r.Context(), r)
	if err != nil {
		internalError(w, r, "load shortlist", err)
		return
	}
	WriteJSON(w, http.StatusOK, v.Metrics)
}

func (s *Server) handleChartJSON(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	v, err := s.buildView(r.Context(), r)
	if err != nil {
		internalError(w, r, "load shortlist", err)
		return
	}
	records, ok := v.records(name)
	if !ok {
		WriteError(w, r, http.StatusNotFound, "unknown_view", "view must be shortlist or all")
		return
	}
	fig := chart.Build(records, v.Dataset.Bands, s.opts.ChartSeed)
	if fig.Points == nil {
		fig.Points = []chart.Point{}
	}
	WriteJSON(w, http.StatusOK, fig)
}

func (s *Server) handleListShortlist(w http.ResponseWriter, r *http.Request) {
	id := readSession(r)
	if id == "" {
		WriteJSON(w, http.StatusOK, shortlistResponse{Companies: []model.ShortlistEntry{}})
		return
	}
	s.writeShortlist(w, r, http.StatusOK, id)
}

func (s *Server) handleAddShortlist(w http.ResponseWriter, r *http.Request) {
	var req addShortlistRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "invalid_body", "body must be a JSON object with a name")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteError(w, r, http.StatusBadRequest, "invalid_body", "name is required")
		return
	}
	if _, ok := s.source.Current().Lookup(name); !ok {
		WriteError(w, r, http.StatusNotFound, "unknown_company", "no company named "+name)
		return
	}

	id := s.ensureSession(w, r)
	if err := s.store.AddShortlist(r.Context(), id, name); err != nil {
		internalError(w, r, "add to shortlist", err)
		return
	}
	s.writeShortlist(w, r, http.StatusOK, id)
}

func (s *Server) handleRemoveShortlist(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	id := readSession(r)
	if id == "" {
		WriteJSON(w, http.StatusOK, shortlistResponse{Companies: []model.ShortlistEntry{}})
		return
	}
	if err := s.store.RemoveShortlist(r.Context(), id, name); err != nil {
		if errors.Is(err, store.ErrMissingName) {
			WriteError(w, r, http.StatusBadRequest, "invalid_name", "name is required")
			return
		}
		internalError(w, r, "remove from shortlist", err)
		return
	}
	s.writeShortlist(w, r, http.StatusOK, id)
}

func (s *Server) handleClearShortlist(w http.ResponseWriter, r *http.Request) {
	id := readSession(r)
	if id == "" {
		WriteJSON(w, http.StatusOK, map[string]int{"cleared": 0})
		return
	}
	n, err := s.store.ClearShortlist(r.Context(), id)
	if err != nil {
		internalError(w, r, "clear shortlist", err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) writeShortlist(w http.ResponseWriter, r *http.Request, status int, id string) {
	entries, err := s.store.ListShortlist(r.Context(), id)
	if err != nil {
		internalError(w, r, "list shortlist", err)
		return
	}
	WriteJSON(w, status, shortlistResponse{Count: len(entries), Companies: entries})
}
