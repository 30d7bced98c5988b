// Package registry persists decode results for a fleet of firmware images.
// Entries are keyed by ksuid, which sorts by registration time, and stored as
// JSON in a pebble database so the CLI and the API server share one view of
// what has been indexed.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"

	"github.com/ssargent/infomem/pkg/codec"
)

// ErrNotFound is returned when no entry exists for the requested id.
var ErrNotFound = errors.New("registry: entry not found")

// Entry is one registered image: where it came from and what decoding found.
type Entry struct {
	ID           string     `json:"id"`
	Path         string     `json:"path"`
	RegisteredAt time.Time  `json:"registered_at"`
	Offset       int64      `json:"offset"`
	AppName      string     `json:"app_name,omitempty"`
	AppVersion   string     `json:"app_version,omitempty"`
	AppGit       string     `json:"app_git,omitempty"`
	BuildDate    *time.Time `json:"build_date,omitempty"`
	Toolchain    string     `json:"toolchain,omitempty"`
	Channel      string     `json:"channel,omitempty"`
	Host         string     `json:"host,omitempty"`
	PayloadLen   int        `json:"payload_len"`
}

// Summarize flattens a decoded record into entry fields. offset is where the
// magic header was found in the image.
func Summarize(path string, offset int64, r *codec.Record) Entry {
	e := Entry{Path: path, Offset: offset}
	if r.App.Name != nil {
		e.AppName = r.App.Name.String()
	}
	if r.App.Version != nil {
		e.AppVersion = r.App.Version.String()
	}
	if r.App.Git != nil {
		e.AppGit = r.App.Git.String()
	}
	if r.App.BuildDate != nil {
		t := r.App.BuildDate.UTC()
		e.BuildDate = &t
	}
	if r.Toolchain.Version != nil {
		e.Toolchain = r.Toolchain.Version.String()
	}
	if r.Toolchain.Channel != nil {
		e.Channel = r.Toolchain.Channel.String()
	}
	if r.Toolchain.Host != nil {
		e.Host = r.Toolchain.Host.String()
	}
	if r.User.Present {
		e.PayloadLen = len(r.User.Data)
	}
	return e
}

// Registry is a pebble-backed store of entries.
type Registry struct {
	db *pebble.DB
}

// Open opens or creates the registry database at path.
func Open(path string) (*Registry, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening registry at %s: %w", path, err)
	}
	return &Registry{db: db}, nil
}

// Register stores the entry under a fresh ksuid and returns it with the id
// and registration time filled in.
func (r *Registry) Register(e Entry) (Entry, error) {
	id := ksuid.New()
	e.ID = id.String()
	e.RegisteredAt = time.Now().UTC()

	data, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("encoding entry: %w", err)
	}
	if err := r.db.Set(id.Bytes(), data, pebble.Sync); err != nil {
		return Entry{}, fmt.Errorf("storing entry: %w", err)
	}
	return e, nil
}

// Get returns the entry for id, or ErrNotFound.
func (r *Registry) Get(id string) (Entry, error) {
	key, err := ksuid.Parse(id)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %q is not a valid id", ErrNotFound, id)
	}

	data, closer, err := r.db.Get(key.Bytes())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Entry{}, fmt.Errorf("reading entry %s: %w", id, err)
	}
	defer closer.Close()

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decoding entry %s: %w", id, err)
	}
	return e, nil
}

// List returns all entries in registration order.
func (r *Registry) List() ([]Entry, error) {
	iter, err := r.db.NewIter(nil)
	if err != nil {
		return nil, fmt.Errorf("iterating registry: %w", err)
	}
	defer iter.Close()

	var entries []Entry
	for iter.First(); iter.Valid(); iter.Next() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			return nil, fmt.Errorf("decoding entry %x: %w", iter.Key(), err)
		}
		entries = append(entries, e)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterating registry: %w", err)
	}
	return entries, nil
}

// Delete removes the entry for id. Deleting a missing entry returns
// ErrNotFound.
func (r *Registry) Delete(id string) error {
	if _, err := r.Get(id); err != nil {
		return err
	}
	key, _ := ksuid.Parse(id)
	if err := r.db.Delete(key.Bytes(), pebble.Sync); err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}
	return nil
}

// Close closes the underlying database.
func (r *Registry) Close() error {
	return r.db.Close()
}
