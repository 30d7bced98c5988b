package api

import (
	"github.com/ssargent/infomem/pkg/registry"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port        int
	ScratchSize int // scratch buffer size for streaming decodes
}

// Store defines the registry operations the server depends on
type Store interface {
	Register(registry.Entry) (registry.Entry, error)
	Get(id string) (registry.Entry, error)
	List() ([]registry.Entry, error)
	Delete(id string) error
}
