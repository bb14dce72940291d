package api

import (
	"fmt"
	"net/http"
)

func (s *Server) handleDependencyAdd(w http.ResponseWriter, r *http.Request) {
	updated, err := s.service.AddDependency(r.Context(), r.PathValue("taskId"), r.PathValue("dependencyId"))
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (s *Server) handleDependencyRemove(w http.ResponseWriter, r *http.Request) {
	updated, err := s.service.RemoveDependency(r.Context(), r.PathValue("taskId"), r.PathValue("dependencyId"))
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (s *Server) handleDependencyList(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.GetAllDependencies(r.Context(), r.PathValue("taskId"))
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

func (s *Server) handleDependencyBatch(w http.ResponseWriter, r *http.Request) {
	var payload batchDependenciesRequest
	if err := decodeJSON(r, &payload); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	if len(payload.DependencyIDs) == 0 {
		s.writeError(w, r, http.StatusBadRequest, fmt.Errorf("dependencyIds must be a non-empty array"))
		return
	}

	report, err := s.service.AddMultipleDependencies(r.Context(), r.PathValue("taskId"), payload.DependencyIDs)
	if err != nil {
		s.writeTaskError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, report)
}
