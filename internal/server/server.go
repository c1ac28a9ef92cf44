// Package server exposes the catalog over a small read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/altinukshini/hepc-tui/internal/catalog"
	"github.com/altinukshini/hepc-tui/internal/export"
	"github.com/altinukshini/hepc-tui/internal/filter"
	"github.com/altinukshini/hepc-tui/internal/logging"
	"github.com/altinukshini/hepc-tui/internal/model"
)

// regexSuffix marks a query parameter as a pattern rather than an exact value.
const regexSuffix = "_regex"

// Server holds the open catalog, its candidate index and rendered exports.
type Server struct {
	path string

	mu    sync.RWMutex
	store *catalog.Store
	index catalog.Index
	gen   uint64 // bumped on every reload; part of each export cache key

	exports *lru.Cache[string, []byte]
}

// New opens the catalog at path and loads its candidate index.
func New(ctx context.Context, path string, cacheSize int) (*Server, error) {
	if cacheSize <= 0 {
		cacheSize = 128
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("server: export cache: %w", err)
	}
	s := &Server{path: path, exports: cache}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload reopens the catalog, rebuilds the candidate index and drops every
// cached export.
func (s *Server) Reload(ctx context.Context) error {
	store, err := catalog.Open(ctx, s.path)
	if err != nil {
		return err
	}
	idx, err := store.Candidates(ctx)
	if err != nil {
		store.Close()
		return fmt.Errorf("server: load candidates: %w", err)
	}

	s.mu.Lock()
	old := s.store
	s.store, s.index = store, idx
	s.gen++
	s.mu.Unlock()

	if old != nil {
		old.Close()
	}
	s.exports.Purge()
	logging.Infof("server: catalog %s loaded", s.path)
	return nil
}

// Close releases the catalog.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// Handler returns the router with recovery, real-IP and request logging.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/columns", s.handleColumns)
		r.Get("/candidates/{column}", s.handleCandidates)
		r.Get("/records", s.handleRecords)
		r.Get("/export/{format}", s.handleExport)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Infof("server: %s %s %d %dB %s %s",
			r.Method, r.URL.RequestURI(), ww.Status(), ww.BytesWritten(), time.Since(start), r.RemoteAddr)
	})
}

type columnInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Integer bool   `json:"integer,omitempty"`
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	cols := make([]columnInfo, len(model.Columns))
	for i, c := range model.Columns {
		cols[i] = columnInfo{Name: string(c), Label: c.Label(), Integer: c.IsInteger()}
	}
	writeJSON(w, cols)
}

type candidatesResponse struct {
	Column string   `json:"column"`
	Regex  string   `json:"regex,omitempty"`
	Values []string `json:"values"`
}

func (s *Server) handleCandidates(w http.ResponseWriter, r *http.Request) {
	col := model.Column(chi.URLParam(r, "column"))
	if !col.Valid() {
		http.Error(w, fmt.Sprintf("unknown column %q", col), http.StatusBadRequest)
		return
	}
	pattern := r.URL.Query().Get("regex")

	s.mu.RLock()
	values := s.index.Narrow(col, pattern)
	s.mu.RUnlock()

	// Drop the leading "no constraint" choice.
	writeJSON(w, candidatesResponse{Column: string(col), Regex: pattern, Values: values[1:]})
}

type recordsResponse struct {
	Filter  string         `json:"filter"`
	Count   int            `json:"count"`
	Records []model.Record `json:"records"`
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	st, err := s.parseState(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rs, _, err := s.query(r.Context(), st)
	if err != nil {
		logging.Errorf("server: query [%s]: %v", st.Summary(), err)
		http.Error(w, "query failed", http.StatusInternalServerError)
		return
	}
	records := rs.Records
	if records == nil {
		records = []model.Record{}
	}
	writeJSON(w, recordsResponse{Filter: st.Summary(), Count: len(records), Records: records})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	st, err := s.parseState(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, ok := s.exports.Get(exportKey(s.generation(), f, st))
	if !ok {
		rs, gen, err := s.query(r.Context(), st)
		if err != nil {
			logging.Errorf("server: export query [%s]: %v", st.Summary(), err)
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		doc, err = export.Render(f, rs.Records)
		if errors.Is(err, export.ErrEmptyResultSet) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// A reload during the query leaves this under a dead generation.
		s.exports.Add(exportKey(gen, f, st), doc)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(doc)
	w.Write([]byte("\n"))
}

func exportKey(gen uint64, f export.Format, st filter.State) string {
	return fmt.Sprintf("%d\x02%s\x02%s", gen, f, st.Key())
}

func (s *Server) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// query runs st against the current catalog and reports its generation.
func (s *Server) query(ctx context.Context, st filter.State) (*catalog.ResultSet, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, s.gen, errors.New("catalog closed")
	}
	rs, err := s.store.Query(ctx, st)
	return rs, s.gen, err
}

// parseState turns ?col=value and ?col_regex=pattern parameters into a
// filter. Patterns are applied before exact values so an explicit exact
// value is never cleared by its own column's pattern.
func (s *Server) parseState(r *http.Request) (filter.State, error) {
	params := r.URL.Query()
	st := filter.State{}
	exact := map[model.Column]string{}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for name, values := range params {
		if len(values) == 0 {
			continue
		}
		value := values[len(values)-1]
		if base, ok := strings.CutSuffix(name, regexSuffix); ok {
			col := model.Column(base)
			if !col.Valid() {
				return filter.State{}, fmt.Errorf("%w: %q", filter.ErrUnknownColumn, base)
			}
			st = st.WithPattern(col, value, s.index[col])
			continue
		}
		col := model.Column(name)
		if !col.Valid() {
			return filter.State{}, fmt.Errorf("%w: %q", filter.ErrUnknownColumn, name)
		}
		exact[col] = value
	}
	for col, v := range exact {
		st = st.WithExact(col, v)
	}
	return st, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorf("server: encode response: %v", err)
	}
}
