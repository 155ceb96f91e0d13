// Package reviewers holds the roster of reviewer personas used for an evaluation.
package reviewers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/devils-advocate/internal/models"
)

const defaultSpecialization = "general"

// Definition is the configuration form of a reviewer.
type Definition struct {
	Name           string `mapstructure:"name"`
	BiasStance     string `mapstructure:"bias-stance"`
	Specialization string `mapstructure:"specialization"`
}

// Registry is an immutable, ordered list of reviewers. The order is the roster order
// used to break ties when recommendations are tallied.
type Registry struct {
	reviewers []models.Reviewer
}

// Default returns the stock roster: two biased reviewers and one unbiased.
func Default() *Registry {
	return &Registry{reviewers: []models.Reviewer{
		{Name: "Reviewer A", BiasStance: models.Biased, Specialization: "technical"},
		{Name: "Reviewer B", BiasStance: models.Biased, Specialization: "leadership"},
		{Name: "Reviewer C", BiasStance: models.Unbiased, Specialization: defaultSpecialization},
	}}
}

// New builds a registry from configuration. An empty list yields the default roster.
func New(defs []Definition) (*Registry, error) {
	if len(defs) == 0 {
		return Default(), nil
	}

	seen := make(map[string]struct{}, len(defs))
	list := make([]models.Reviewer, 0, len(defs))
	for i, def := range defs {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, fmt.Errorf("reviewer #%d: name is required", i+1)
		}

		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return nil, fmt.Errorf("reviewer %q is defined more than once", name)
		}
		seen[key] = struct{}{}

		stance, err := models.ParseBiasStance(def.BiasStance)
		if err != nil {
			return nil, fmt.Errorf("reviewer %q: %w", name, err)
		}

		specialization := strings.TrimSpace(def.Specialization)
		if specialization == "" {
			specialization = defaultSpecialization
		}

		list = append(list, models.Reviewer{Name: name, BiasStance: stance, Specialization: specialization})
	}

	return &Registry{reviewers: list}, nil
}

// All returns a copy of the roster in order.
func (r *Registry) All() []models.Reviewer {
	out := make([]models.Reviewer, len(r.reviewers))
	copy(out, r.reviewers)
	return out
}

func (r *Registry) Len() int { return len(r.reviewers) }

// Index returns the roster position of the named reviewer, or -1.
func (r *Registry) Index(name string) int {
	for i, reviewer := range r.reviewers {
		if reviewer.Name == name {
			return i
		}
	}
	return -1
}

// ByStance returns the reviewers with the given stance, in roster order.
func (r *Registry) ByStance(stance models.BiasStance) []models.Reviewer {
	var out []models.Reviewer
	for _, reviewer := range r.reviewers {
		if reviewer.BiasStance == stance {
			out = append(out, reviewer)
		}
	}
	return out
}

// Validate checks the roster can produce an evaluation.
func (r *Registry) Validate() error {
	if r == nil || len(r.reviewers) == 0 {
		return errors.New("at least one reviewer is required")
	}
	return nil
}
