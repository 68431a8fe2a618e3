// Package store reads household planning records from the SQLite database
// shared with the planning app. It never writes records.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	appLog "famcal/internal/log"
	"famcal/internal/model"
)

//go:embed schema.sql
var schema string

const (
	dateLayout = "2006-01-02"
	memoryPath = ":memory:"
)

// Store implements calendar.Sources and specialdays.Source.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

type Option func(*Store)

// WithLocation sets the zone stored dates and times are read in.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// Open opens the database at path, creating the schema when missing.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	if path != memoryPath {
		path = filepath.Clean(path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == memoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}
	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000", "PRAGMA foreign_keys = ON"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Meals(ctx context.Context, from, to time.Time) ([]model.Meal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, meal_type, recipe, servings, prepared, notes
		   FROM meals WHERE date >= ? AND date < ? ORDER BY date, id`,
		key(from), key(to))
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	defer rows.Close()

	var out []model.Meal
	for rows.Next() {
		var (
			m    model.Meal
			date string
			typ  string
		)
		if err := rows.Scan(&m.ID, &date, &typ, &m.Recipe, &m.Servings, &m.Prepared, &m.Notes); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		if m.Date, err = s.parseDate(date); err != nil {
			skip("meals", m.ID, err)
			continue
		}
		m.Type = model.MealType(typ)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) BatchSessions(ctx context.Context, from, to time.Time) ([]model.BatchSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, name, start_time, end_time, recipes, status, notes
		   FROM batch_sessions WHERE date >= ? AND date < ? ORDER BY date, id`,
		key(from), key(to))
	if err != nil {
		return nil, fmt.Errorf("query batch sessions: %w", err)
	}
	defer rows.Close()

	var out []model.BatchSession
	for rows.Next() {
		var (
			b          model.BatchSession
			date       string
			start, end sql.NullString
			recipes    string
		)
		if err := rows.Scan(&b.ID, &date, &b.Name, &start, &end, &recipes, &b.Status, &b.Notes); err != nil {
			return nil, fmt.Errorf("scan batch session: %w", err)
		}
		if b.Date, err = s.parseDate(date); err == nil {
			b.Start, err = clock(start)
		}
		if err == nil {
			b.End, err = clock(end)
		}
		if err == nil {
			b.Recipes, err = list(recipes)
		}
		if err != nil {
			skip("batch_sessions", b.ID, err)
			continue
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) Activities(ctx context.Context, from, to time.Time) ([]model.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, type, date, start_time, end_time, location, participants, for_child, cost, done, notes
		   FROM activities WHERE date >= ? AND date < ? ORDER BY date, id`,
		key(from), key(to))
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		var (
			a            model.Activity
			date         string
			start, end   sql.NullString
			participants string
			cost         sql.NullFloat64
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Type, &date, &start, &end, &a.Location, &participants, &a.ForChild, &cost, &a.Done, &a.Notes); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if a.Date, err = s.parseDate(date); err == nil {
			a.Start, err = clock(start)
		}
		if err == nil {
			a.End, err = clock(end)
		}
		if err == nil {
			a.Participants, err = list(participants)
		}
		if err != nil {
			skip("activities", a.ID, err)
			continue
		}
		a.Cost = optFloat(cost)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CalendarItems(ctx context.Context, from, to time.Time) ([]model.CalendarItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, type, start_at, end_at, all_day, location, participants, for_child, done, notes
		   FROM calendar_items WHERE start_at >= ? AND start_at < ? ORDER BY start_at, id`,
		key(from), key(to))
	if err != nil {
		return nil, fmt.Errorf("query calendar items: %w", err)
	}
	defer rows.Close()

	var out []model.CalendarItem
	for rows.Next() {
		var (
			c            model.CalendarItem
			start        string
			end          sql.NullString
			participants string
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.Type, &start, &end, &c.AllDay, &c.Location, &participants, &c.ForChild, &c.Done, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan calendar item: %w", err)
		}
		if c.Start, err = s.parseDateTime(start); err == nil && end.Valid && end.String != "" {
			var t time.Time
			if t, err = s.parseDateTime(end.String); err == nil {
				c.End = &t
			}
		}
		if err == nil {
			c.Participants, err = list(participants)
		}
		if err != nil {
			skip("calendar_items", c.ID, err)
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Errands(ctx context.Context, from, to time.Time) ([]model.Errand, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, start_time, store, items, budget, done, notes
		   FROM errands WHERE date >= ? AND date < ? ORDER BY date, id`,
		key(from), key(to))
	if err != nil {
		return nil, fmt.Errorf("query errands: %w", err)
	}
	defer rows.Close()

	var out []model.Errand
	for rows.Next() {
		var (
			e      model.Errand
			date   string
			start  sql.NullString
			budget sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &date, &start, &e.Store, &e.Items, &budget, &e.Done, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan errand: %w", err)
		}
		if e.Date, err = s.parseDate(date); err == nil {
			e.Start, err = clock(start)
		}
		if err != nil {
			skip("errands", e.ID, err)
			continue
		}
		e.Budget = optFloat(budget)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Chores returns every chore, paused ones included; placement decides.
func (s *Store) Chores(ctx context.Context) ([]model.Chore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, category, interval_days, next_due, duration_min, assignee, paused
		   FROM chores ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query chores: %w", err)
	}
	defer rows.Close()

	var out []model.Chore
	for rows.Next() {
		var (
			c   model.Chore
			due sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Category, &c.IntervalDays, &due, &c.DurationMin, &c.Assignee, &c.Paused); err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		if due.Valid && due.String != "" {
			d, err := s.parseDate(due.String)
			if err != nil {
				skip("chores", c.ID, err)
				continue
			}
			c.NextDue = &d
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SpecialDays(ctx context.Context, from, to time.Time) ([]model.SpecialDay, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, kind, name FROM special_days WHERE date >= ? AND date < ? ORDER BY date, kind`,
		key(from), key(to))
	if err != nil {
		return nil, fmt.Errorf("query special days: %w", err)
	}
	defer rows.Close()

	var out []model.SpecialDay
	for rows.Next() {
		var (
			sd   model.SpecialDay
			date string
			kind string
		)
		if err := rows.Scan(&date, &kind, &sd.Name); err != nil {
			return nil, fmt.Errorf("scan special day: %w", err)
		}
		if sd.Date, err = s.parseDate(date); err != nil {
			appLog.Warn("store: special day skipped", "date", date, "err", err)
			continue
		}
		sd.Kind = model.SpecialDayKind(kind)
		out = append(out, sd)
	}
	return out, rows.Err()
}

func key(t time.Time) string {
	return t.Format(dateLayout)
}

func (s *Store) parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) > len(dateLayout) {
		v = v[:len(dateLayout)]
	}
	return time.ParseInLocation(dateLayout, v, s.loc)
}

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	dateLayout,
}

// parseDateTime reads local timestamps; RFC 3339 values keep their offset
// and are converted to the store location.
func (s *Store) parseDateTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.In(s.loc), nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, v, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", v)
}

func clock(v sql.NullString) (*model.Clock, error) {
	if !v.Valid || strings.TrimSpace(v.String) == "" {
		return nil, nil
	}
	c, err := model.ParseClock(v.String)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// list decodes a JSON array column. Plain comma-separated values written by
// older versions of the planning app are accepted too.
func list(v string) ([]string, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "[]" {
		return nil, nil
	}
	if strings.HasPrefix(v, "[") {
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return out, nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func optFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func skip(table string, id int64, err error) {
	appLog.Warn("store: row skipped", "table", table, "id", id, "err", err)
}
