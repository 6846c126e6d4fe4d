// Package server exposes a running strip controller over HTTP: programs
// are uploaded as CBOR envelopes, optionally persisted in a SQLite
// library, and handed to a worker that renders one frame per tick.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tliron/commonlog"

	"github.com/MabaKalox/animation-lang/pkg/bytecode"
	"github.com/MabaKalox/animation-lang/pkg/wire"
)

// maxEnvelopeSize bounds uploads; programs are at most 64 KiB plus
// envelope overhead.
const maxEnvelopeSize = 1 << 17

// Server is the controller's HTTP face.
type Server struct {
	worker *Worker
	store  *Store
	mux    *http.ServeMux
	log    commonlog.Logger
}

// New creates a Server over the given worker and program store. The
// store may be nil, which disables the library endpoints.
func New(worker *Worker, store *Store) *Server {
	s := &Server{
		worker: worker,
		store:  store,
		mux:    http.NewServeMux(),
		log:    commonlog.GetLogger("server"),
	}

	s.mux.HandleFunc("POST /v1/program", s.handleRun)
	s.mux.HandleFunc("GET /v1/status", s.handleStatus)
	if store != nil {
		s.mux.HandleFunc("GET /v1/programs", s.handleList)
		s.mux.HandleFunc("POST /v1/programs/{name}", s.handleSave)
		s.mux.HandleFunc("DELETE /v1/programs/{name}", s.handleDelete)
		s.mux.HandleFunc("POST /v1/programs/{name}/run", s.handleRunSaved)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorf("writing response: %s", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// readEnvelope decodes and verifies the CBOR envelope in the request
// body.
func (s *Server) readEnvelope(r *http.Request) (*wire.Envelope, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeSize))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	env, err := wire.Unmarshal(body)
	if err != nil {
		return nil, err
	}
	if err := env.Verify(); err != nil {
		return nil, err
	}
	return env, nil
}

// handleRun makes the uploaded program the active one. The body is a
// CBOR envelope, or raw bytecode when sent as application/octet-stream.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") == "application/octet-stream" {
		code, err := io.ReadAll(io.LimitReader(r.Body, maxEnvelopeSize))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("reading request body: %w", err))
			return
		}
		s.worker.Swap("", bytecode.FromBytes(code))
		s.writeJSON(w, http.StatusOK, s.worker.Status())
		return
	}

	env, err := s.readEnvelope(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	prog, err := env.Program()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.worker.Swap(env.Name, prog)
	s.writeJSON(w, http.StatusOK, s.worker.Status())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.worker.Status())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if entries == nil {
		entries = []StoreEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

// handleSave stores an uploaded envelope in the library without running
// it.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	env, err := s.readEnvelope(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	prog, err := env.Program()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.store.Save(name, prog); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"name": name})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.store.Delete(name); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrProgramNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"name": name})
}

// handleRunSaved loads a library program and makes it active.
func (s *Server) handleRunSaved(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	prog, err := s.store.Load(name)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrProgramNotFound) {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err)
		return
	}
	s.worker.Swap(name, prog)
	s.writeJSON(w, http.StatusOK, s.worker.Status())
}
