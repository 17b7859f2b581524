// Copyright 2026 The Snapshot Debugger Authors
// SPDX-License-Identifier: Apache-2.0

// Package rtdbemu is a local, single-process stand-in for the Firebase
// Realtime Database REST surface that the debugger stores its state
// in. It implements just the dialect the CLI speaks: GET/PUT/DELETE on
// <path>.json, null for absent nodes, the {".sv": "timestamp"} server
// value, and ETag/if-match conditional writes with 412 on conflict.
//
// It exists so the CLI can be exercised end to end without a Firebase
// project: `snapdbg emulator` serves it on localhost, and the test
// suites run the real HTTP client against it.
package rtdbemu

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/snapshot-debugger/snapdbg/lib/clock"
)

// Config carries the emulator's dependencies.
type Config struct {
	// Logger receives request logs. Required.
	Logger *slog.Logger

	// Clock resolves server timestamps. Defaults to the real clock.
	Clock clock.Clock

	// PersistPath, when set, names a SQLite database file the tree is
	// loaded from at startup and written through to on every mutation.
	// Empty means in-memory only.
	PersistPath string
}

// Server holds the emulated database.
type Server struct {
	tree    *tree
	logger  *slog.Logger
	clock   clock.Clock
	persist *sqliteStore
}

// New builds a Server, loading any previously persisted tree.
func New(config Config) (*Server, error) {
	if config.Logger == nil {
		return nil, fmt.Errorf("rtdbemu: config must carry a logger")
	}
	server := &Server{
		tree:   newTree(),
		logger: config.Logger,
		clock:  config.Clock,
	}
	if server.clock == nil {
		server.clock = clock.Real()
	}
	if config.PersistPath != "" {
		store, err := openSQLiteStore(config.PersistPath)
		if err != nil {
			return nil, err
		}
		serialized, err := store.load()
		if err != nil {
			store.Close()
			return nil, err
		}
		if serialized != nil {
			if err := server.tree.load(serialized); err != nil {
				store.Close()
				return nil, err
			}
		}
		server.persist = store
	}
	return server, nil
}

// Close releases the persistence handle, if any.
func (s *Server) Close() error {
	if s.persist == nil {
		return nil
	}
	return s.persist.Close()
}

// Handler returns the emulator's HTTP surface.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Get("/*", s.handleGet)
	router.Put("/*", s.handlePut)
	router.Delete("/*", s.handleDelete)
	return router
}

// parsePath strips the mandatory ".json" suffix and splits the node
// path, answering the request itself on failure.
func (s *Server) parsePath(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	raw := chi.URLParam(r, "*")
	trimmed, ok := strings.CutSuffix(strings.Trim(raw, "/"), ".json")
	if !ok {
		s.writeError(w, http.StatusNotFound, "path must end in .json")
		return nil, false
	}
	segments, err := splitPath(trimmed)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return segments, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	segments, ok := s.parsePath(w, r)
	if !ok {
		return
	}
	node := s.tree.get(segments)
	if r.Header.Get("X-Firebase-ETag") == "true" {
		w.Header().Set("ETag", etagOf(node))
	}
	s.logger.Debug("emulator get",
		"path", strings.Join(segments, "/"),
		"request_id", r.Header.Get("X-Request-Id"),
	)
	s.writeJSON(w, http.StatusOK, node)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	segments, ok := s.parsePath(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		s.writeError(w, http.StatusBadRequest, "request body is not valid JSON: "+err.Error())
		return
	}
	value = s.resolveServerValues(value)

	var committed any
	if ifMatch := r.Header.Get("If-Match"); ifMatch != "" {
		node, ok, current := s.tree.compareAndPut(segments, ifMatch, value)
		if !ok {
			w.Header().Set("ETag", current)
			s.logger.Debug("emulator conditional put conflict",
				"path", strings.Join(segments, "/"),
				"request_id", r.Header.Get("X-Request-Id"),
			)
			s.writeJSON(w, http.StatusPreconditionFailed, nil)
			return
		}
		committed = node
	} else {
		committed = s.tree.put(segments, value)
	}

	s.logger.Debug("emulator put",
		"path", strings.Join(segments, "/"),
		"request_id", r.Header.Get("X-Request-Id"),
	)
	s.save()
	s.writeJSON(w, http.StatusOK, committed)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	segments, ok := s.parsePath(w, r)
	if !ok {
		return
	}

	if ifMatch := r.Header.Get("If-Match"); ifMatch != "" {
		ok, current := s.tree.compareAndDelete(segments, ifMatch)
		if !ok {
			w.Header().Set("ETag", current)
			s.writeJSON(w, http.StatusPreconditionFailed, nil)
			return
		}
	} else {
		s.tree.delete(segments)
	}

	s.logger.Debug("emulator delete",
		"path", strings.Join(segments, "/"),
		"request_id", r.Header.Get("X-Request-Id"),
	)
	s.save()
	s.writeJSON(w, http.StatusOK, nil)
}

// resolveServerValues replaces every {".sv": "timestamp"} sentinel in
// value with the current time in epoch milliseconds.
func (s *Server) resolveServerValues(value any) any {
	switch node := value.(type) {
	case map[string]any:
		if sv, ok := node[".sv"]; ok && len(node) == 1 && sv == "timestamp" {
			return s.clock.Now().UnixMilli()
		}
		for key, child := range node {
			node[key] = s.resolveServerValues(child)
		}
		return node
	case []any:
		for i, child := range node {
			node[i] = s.resolveServerValues(child)
		}
		return node
	default:
		return value
	}
}

// save writes the tree through to the persistence store, if one is
// configured. A write-through failure is logged, not surfaced: the
// in-memory state already committed and the client's view is correct.
func (s *Server) save() {
	if s.persist == nil {
		return
	}
	serialized, err := s.tree.export()
	if err != nil {
		s.logger.Error("emulator persistence export failed", "error", err)
		return
	}
	if err := s.persist.save(serialized); err != nil {
		s.logger.Error("emulator persistence write failed", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, value any) {
	serialized, err := json.Marshal(value)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(serialized)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
