package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ssargent/infomem/pkg/codec"
	"github.com/ssargent/infomem/pkg/registry"
)

// maxImageBytes bounds the request body for image uploads.
const maxImageBytes = 64 << 20

// Server holds the API server state
type Server struct {
	store   Store
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server
func NewServer(store Store, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		store:   store,
		config:  config,
		metrics: metrics,
	}
}

// handleHealth reports server liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleListImages returns every registered image.
func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to list images: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.SetRegistryEntries(len(entries))
	if entries == nil {
		entries = []registry.Entry{}
	}
	sendSuccess(w, http.StatusOK, entries)
}

// handleGetImage returns one registered image by id.
func (s *Server) handleGetImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entry, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			sendError(w, fmt.Sprintf("Image %s not found", id), http.StatusNotFound)
			return
		}
		sendError(w, fmt.Sprintf("Failed to get image: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, http.StatusOK, entry)
}

// handleRegisterImage decodes an uploaded image and registers the result.
// The request body is the raw image; the record may sit at any offset behind
// the magic header. An optional ?path= query labels the entry.
func (s *Server) handleRegisterImage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImageBytes))
	if err != nil {
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 {
		sendError(w, "Empty image", http.StatusBadRequest)
		return
	}

	start := time.Now()
	record, err := codec.DecodeBytesMagic(body)
	s.metrics.RecordDecode(err == nil, time.Since(start))
	if err != nil {
		if errors.Is(err, codec.ErrSourceExhausted) {
			sendError(w, "No record header found in image", http.StatusUnprocessableEntity)
			return
		}
		sendError(w, fmt.Sprintf("Failed to decode image: %v", err), http.StatusUnprocessableEntity)
		return
	}

	path := r.URL.Query().Get("path")
	offset := int64(bytes.Index(body, codec.Magic[:]))

	entry, err := s.store.Register(registry.Summarize(path, offset, record))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to register image: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, http.StatusCreated, entry)
}

// handleDeleteImage removes a registered image by id.
func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			sendError(w, fmt.Sprintf("Image %s not found", id), http.StatusNotFound)
			return
		}
		sendError(w, fmt.Sprintf("Failed to delete image: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, http.StatusOK, map[string]string{"deleted": id})
}

func sendSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data}) //nolint:errcheck
}

func sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message}) //nolint:errcheck
}
