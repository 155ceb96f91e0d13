// Package session keeps the inputs and results of evaluations so that later commands
// can refer to an application by its id.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/devils-advocate/internal/models"
)

// Drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// ErrNotFound is returned when no session exists for an application id.
var ErrNotFound = errors.New("session not found")

// Session is everything known about one application.
type Session struct {
	ApplicationID string
	Opportunity   string
	Application   string
	Evaluation    *models.EvaluationResult
	Improvements  *models.ImprovementSuggestions
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store persists sessions keyed by application id.
type Store interface {
	Get(ctx context.Context, applicationID string) (*Session, error)
	// Put inserts or replaces the session. CreatedAt of an existing session is kept.
	Put(ctx context.Context, s *Session) error
	Close() error
}

// Open returns a store for the given driver. path is only used by the sqlite driver.
func Open(ctx context.Context, driver, path string) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		if path == "" {
			return nil, errors.New("session path is required for the sqlite driver")
		}
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session driver %q", driver)
	}
}

func validate(s *Session) error {
	if s == nil {
		return errors.New("session is nil")
	}
	if s.ApplicationID == "" {
		return errors.New("session has no application id")
	}
	return nil
}
