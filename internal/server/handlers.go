package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/healthtrends/internal/modules/trends"
	"github.com/aristath/healthtrends/internal/modules/trends/render"
	"github.com/aristath/healthtrends/internal/services"
)

// maxWindowDays caps ?window= so a typo cannot request decades of history
const maxWindowDays = 3650

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":    "healthy",
		"service":   "healthtrends",
		"timestamp": time.Now().UTC(),
	}

	if s.system.cacheDB != nil {
		if err := s.system.cacheDB.QuickCheck(r.Context()); err != nil {
			s.log.Warn().Err(err).Msg("Cache database check failed")
			status["status"] = "degraded"
			status["cache"] = err.Error()
		}
	}
	if s.reports != nil {
		if last := s.reports.LastRun(); last != nil {
			status["last_run"] = last
		}
	}

	s.writeJSON(w, http.StatusOK, status)
}

// handleMetrics lists the metrics a report compares
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"metrics": s.reg.Definitions(),
	})
}

// handleReport builds a report without delivering it
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

// handleReportSlack returns the Slack webhook body for a report
func (s *Server) handleReportSlack(w http.ResponseWriter, r *http.Request) {
	report, ok := s.buildReport(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, render.Slack(report))
}

// handleDeliver runs the full pipeline, delivery included
func (s *Server) handleDeliver(w http.ResponseWriter, r *http.Request) {
	report, err := s.reports.Run(r.Context())
	switch {
	case err == nil, errors.Is(err, trends.ErrInsufficientData) && !errors.Is(err, services.ErrDeliveryFailed):
		s.writeJSON(w, http.StatusOK, report)
	case report != nil:
		s.log.Error().Err(err).Msg("Report delivery failed")
		s.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  err.Error(),
			"report": report,
		})
	default:
		s.log.Error().Err(err).Msg("Report run failed")
		s.writeError(w, http.StatusBadGateway, err.Error())
	}
}

// buildReport parses ?window= and builds a report. Insufficient data is not an error here.
func (s *Server) buildReport(w http.ResponseWriter, r *http.Request) (*trends.Report, bool) {
	window, err := parseWindow(r, s.reports.WindowDays())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	report, err := s.reports.Build(r.Context(), window)
	if err != nil && !errors.Is(err, trends.ErrInsufficientData) {
		s.log.Error().Err(err).Int("window", window).Msg("Failed to build report")
		s.writeError(w, http.StatusBadGateway, err.Error())
		return nil, false
	}
	return report, true
}

func parseWindow(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		return fallback, nil
	}
	window, err := strconv.Atoi(raw)
	if err != nil || window <= 0 || window > maxWindowDays {
		return 0, errors.New("window must be an integer between 1 and " + strconv.Itoa(maxWindowDays))
	}
	return window, nil
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
