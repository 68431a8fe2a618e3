package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"famcal/internal/calendar"
	"famcal/internal/export"
	appLog "famcal/internal/log"
	"famcal/internal/model"
)

// defaultSpecialDaysSpan is used when /api/special-days has no "to".
const defaultSpecialDaysSpan = 30

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// weekResponse is the JSON shape of /api/week.
type weekResponse struct {
	model.WeekView
	End     string        `json:"end"`
	Label   string        `json:"label"`
	Count   int           `json:"count"`
	Budget  float64       `json:"budget"`
	Summary model.Summary `json:"summary"`
}

// GET /api/week?date=2024-01-17
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r, "date", s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	week, conflicts := s.WeekWithConflicts(r.Context(), date)
	writeJSON(w, http.StatusOK, weekResponse{
		WeekView: week,
		End:      week.End().Format(dateLayout),
		Label:    export.FormatWeekRange(week),
		Count:    week.Count(),
		Budget:   week.Budget(),
		Summary:  calendar.Summarize(conflicts),
	})
}

type conflictsResponse struct {
	WeekStart string           `json:"week_start"`
	Summary   model.Summary    `json:"summary"`
	Conflicts []model.Conflict `json:"conflicts"`
}

// GET /api/conflicts?date=2024-01-17
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	date, err := s.dateParam(r, "date", s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	week, conflicts := s.WeekWithConflicts(r.Context(), date)
	if conflicts == nil {
		conflicts = []model.Conflict{}
	}
	writeJSON(w, http.StatusOK, conflictsResponse{
		WeekStart: week.Start.Format(dateLayout),
		Summary:   calendar.Summarize(conflicts),
		Conflicts: conflicts,
	})
}

type recurrenceResponse struct {
	Frequency calendar.Frequency `json:"frequency"`
	From      string             `json:"from"`
	Days      int                `json:"days"`
	Dates     []string           `json:"dates"`
}

// GET /api/recurrence?freq=weekly&weekday=lundi&monthday=&days=30&from=
func (s *Server) handleRecurrence(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	freq, err := calendar.ParseFrequency(q.Get("freq"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule := calendar.Recurrence{Frequency: freq}
	if v := q.Get("weekday"); v != "" {
		wd, err := calendar.ParseWeekday(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rule.Weekday = &wd
	}
	if v := q.Get("monthday"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("monthday %q is not a number", v))
			return
		}
		rule.MonthDay = n
	}
	days := parseIntDefault(q.Get("days"), s.cfg.HorizonDays)
	from, err := s.dateParam(r, "from", s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dates, err := calendar.NextOccurrences(rule, from, days)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	writeJSON(w, http.StatusOK, recurrenceResponse{
		Frequency: freq,
		From:      calendar.DateOf(from).Format(dateLayout),
		Days:      days,
		Dates:     out,
	})
}

type specialDayDTO struct {
	Date  string               `json:"date"`
	Kind  model.SpecialDayKind `json:"kind"`
	Name  string               `json:"name"`
	Label string               `json:"label"`
}

// GET /api/special-days?from=2025-05-01&to=2025-06-01 (to is exclusive)
func (s *Server) handleSpecialDays(w http.ResponseWriter, r *http.Request) {
	if s.deps.SpecialDays == nil {
		writeError(w, http.StatusNotImplemented, "special days are not configured")
		return
	}
	from, err := s.dateParam(r, "from", calendar.DateOf(s.now().In(s.loc)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := s.dateParam(r, "to", from.AddDate(0, 0, defaultSpecialDaysSpan))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "to must be after from")
		return
	}

	days, err := s.deps.SpecialDays.SpecialDays(r.Context(), from, to)
	if err != nil {
		appLog.Error("api special-days: lookup failed", err)
		writeError(w, http.StatusBadGateway, "special days unavailable")
		return
	}
	out := make([]specialDayDTO, 0, len(days))
	for _, d := range days {
		out = append(out, specialDayDTO{
			Date:  d.Date.Format(dateLayout),
			Kind:  d.Kind,
			Name:  d.Name,
			Label: d.Kind.EventKind().Label(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /week.{txt|html|ics|pdf|png}?date=2024-01-17
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := mux.Vars(r)["format"]
	date, err := s.dateParam(r, "date", s.now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	week, conflicts := s.WeekWithConflicts(r.Context(), date)
	name := "famcal-" + week.Start.Format(dateLayout) + "." + format

	switch format {
	case "txt":
		writeBody(w, "text/plain; charset=utf-8", "", []byte(export.Text(week, conflicts)))
		return
	case "ics":
		writeBody(w, "text/calendar; charset=utf-8", name, []byte(export.ICS(week, s.now())))
		return
	}

	doc, err := export.HTML(week, conflicts)
	if err != nil {
		appLog.Error("export: html render failed", err, "week", week.Start.Format(dateLayout))
		http.Error(w, "failed to render planning", http.StatusInternalServerError)
		return
	}
	if format == "html" {
		writeBody(w, "text/html; charset=utf-8", "", doc)
		return
	}

	if s.deps.Renderer == nil {
		http.Error(w, "print rendering is not configured", http.StatusNotImplemented)
		return
	}
	var (
		out         []byte
		contentType string
	)
	if format == "pdf" {
		out, err = s.deps.Renderer.PDF(r.Context(), doc)
		contentType = "application/pdf"
	} else {
		out, err = s.deps.Renderer.PNG(r.Context(), doc)
		contentType = "image/png"
	}
	if err != nil {
		appLog.Error("export: print render failed", err, "format", format)
		http.Error(w, "failed to render "+format, http.StatusInternalServerError)
		return
	}
	writeBody(w, contentType, name, out)
}

// dateParam reads a YYYY-MM-DD query value in the display timezone.
func (s *Server) dateParam(r *http.Request, key string, def time.Time) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, s.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q: expected YYYY-MM-DD", key, v)
	}
	return t, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeBody(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	if filename != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
