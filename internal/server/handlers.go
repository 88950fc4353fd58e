package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/gaffer/internal/domain"
	"github.com/aristath/gaffer/internal/engine"
)

type optimizeSquadRequest struct {
	FromGW int `json:"from_gw"`
	ToGW   int `json:"to_gw"`
}

type pickLineupRequest struct {
	Squad    []domain.Player `json:"squad"`
	Gameweek int             `json:"gw"`
}

type planTransfersRequest struct {
	Squad  []domain.Player `json:"squad"`
	Bank   float64         `json:"bank"`
	FromGW int             `json:"from_gw"`
	ToGW   int             `json:"to_gw"`
}

func (s *Server) handleIngestHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Players []engine.PlayerHistory `json:"players"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Players) == 0 {
		s.writeError(w, http.StatusBadRequest, "no players provided")
		return
	}

	projections, err := s.engine.IngestHistory(req.Players)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{
		"players":     len(req.Players),
		"projections": projections,
	})
}

func (s *Server) handleOptimizeSquad(w http.ResponseWriter, r *http.Request) {
	var req optimizeSquadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FromGW <= 0 || req.ToGW < req.FromGW {
		s.writeError(w, http.StatusBadRequest, "invalid gameweek window")
		return
	}

	res, err := s.engine.OptimizeSquad(req.FromGW, req.ToGW)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handlePickLineup(w http.ResponseWriter, r *http.Request) {
	var req pickLineupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Gameweek <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid gameweek")
		return
	}

	l, err := s.engine.PickLineup(domain.Squad{Players: req.Squad}, req.Gameweek)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, l)
}

func (s *Server) handlePlanTransfers(w http.ResponseWriter, r *http.Request) {
	var req planTransfersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FromGW <= 0 || req.ToGW < req.FromGW {
		s.writeError(w, http.StatusBadRequest, "invalid gameweek window")
		return
	}

	record, err := s.engine.PlanTransfers(domain.Squad{Players: req.Squad}, req.Bank, req.FromGW, req.ToGW)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleLatestPlan(w http.ResponseWriter, r *http.Request) {
	record, err := s.plans.Latest()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "no plans stored")
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := map[string]any{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(s.startupTime).Seconds()),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		health["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		health["cpu_percent"] = percents[0]
	}

	status := http.StatusOK
	dbStatus := map[string]string{}
	for _, db := range []struct {
		name string
		err  error
	}{
		{"market", s.marketDB.QuickCheck(r.Context())},
		{"plans", s.plansDB.QuickCheck(r.Context())},
	} {
		if db.err != nil {
			dbStatus[db.name] = "unreachable"
			health["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			dbStatus[db.name] = "ok"
		}
	}
	health["databases"] = dbStatus

	s.writeJSON(w, status, health)
}

// writeDomainError maps typed domain errors to HTTP status codes. Schema and
// validation problems are the caller's fault; infeasibility is a valid
// outcome reported as unprocessable.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var schemaErr *domain.SchemaError
	var valErr *domain.ValidationError
	var infErr *domain.InfeasibleError

	switch {
	case errors.As(err, &schemaErr), errors.As(err, &valErr):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &infErr):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error().Err(err).Msg("Request failed")
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
