package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/nao1215/ransomwatch/internal/classify"
	"github.com/nao1215/ransomwatch/internal/model"
	"github.com/nao1215/ransomwatch/internal/monitor"
	"github.com/nao1215/ransomwatch/internal/search"
)

// errorResponse is the body of every error response.
type errorResponse struct {
	Error string `json:"error"`
}

// snapshotResponse summarizes the published snapshot.
type snapshotResponse struct {
	Version   string               `json:"version"`
	Target    model.Country        `json:"target"`
	Regions   []model.Country      `json:"regions"`
	AsOf      time.Time            `json:"asOf"` //nolint:tagliatelle // camelCase API
	Stats     model.Stats          `json:"stats"`
	Digest    string               `json:"digest"`
	Degraded  bool                 `json:"degraded"`
	Sources   []model.SourceStatus `json:"sources"`
	LastError string               `json:"lastError,omitempty"` //nolint:tagliatelle // camelCase API
}

// classifyResponse is the result of an ad-hoc classification.
type classifyResponse struct {
	Country model.Country `json:"country"`
	classify.Result
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok")) //nolint:errcheck // client went away
}

// published returns the current snapshot, writing 503 when there is none.
func (s *Server) published(w http.ResponseWriter) *model.Snapshot {
	snap := s.monitor.Snapshot()
	if snap == nil {
		err := monitor.ErrNoSnapshot
		if last := s.monitor.LastError(); last != nil {
			err = last
		}
		writeError(w, http.StatusServiceUnavailable, err)
	}
	return snap
}

func (s *Server) summary(snap *model.Snapshot) snapshotResponse {
	regions := make([]model.Country, 0, len(snap.Regions))
	for _, code := range snap.Regions {
		c, err := s.catalogue.Lookup(code)
		if err != nil {
			c = model.Country{Code: code}
		}
		regions = append(regions, c)
	}

	resp := snapshotResponse{
		Version:  s.version,
		Target:   snap.Target,
		Regions:  regions,
		AsOf:     snap.AsOf,
		Stats:    snap.Stats(),
		Digest:   snap.Digest(),
		Degraded: snap.Degraded(),
		Sources:  snap.Sources,
	}
	if err := s.monitor.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	return resp
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap := s.published(w)
	if snap == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.summary(snap))
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	snap := s.published(w)
	if snap == nil {
		return
	}

	res, err := search.Collection(snap, mux.Vars(r)["name"], r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a non-negative integer"))
			return
		}
		res.Items = search.Limit(res.Items, limit)
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRefresh runs a refresh that outlives a disconnecting client,
// bounded by the refresh timeout.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.refreshTimeout)
	defer cancel()

	snap, err := s.monitor.Refresh(ctx)
	switch {
	case errors.Is(err, monitor.ErrRefreshInProgress):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, monitor.ErrFetchFailed):
		// The user-facing message only; details are in the server log.
		writeError(w, http.StatusBadGateway, monitor.ErrFetchFailed)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusOK, s.summary(snap))
	}
}

// handleClassify classifies a posted record against the target, or against
// the country named by the "country" query parameter.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	country := s.monitor.Target()
	if code := r.URL.Query().Get("country"); code != "" {
		c, err := s.catalogue.Lookup(code)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		country = c
	}

	var record model.Victim
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&record); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("body must be a JSON record object"))
		return
	}

	writeJSON(w, http.StatusOK, classifyResponse{
		Country: country,
		Result:  classify.Classify(&record, country),
	})
}
