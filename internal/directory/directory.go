// Package directory resolves actor ids to names, roles and supervised scope.
// The campus account system owns this data; the service only reads it.
package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// ErrUnknownActor is returned when an id has no directory entry.
var ErrUnknownActor = errors.New("actor not found in directory")

// Directory looks up actors.
type Directory interface {
	ResolveActor(ctx context.Context, actorID string) (*domain.Actor, error)
}

// Entry is the YAML shape of a directory record.
type Entry struct {
	ID         string   `yaml:"id" json:"id"`
	Name       string   `yaml:"name" json:"name"`
	Role       string   `yaml:"role" json:"role"`
	ClassID    string   `yaml:"class_id,omitempty" json:"class_id,omitempty"`
	Department string   `yaml:"department,omitempty" json:"department,omitempty"`
	Classes    []string `yaml:"classes,omitempty" json:"classes,omitempty"`
}

type seedFile struct {
	Actors []Entry `yaml:"actors"`
}

// StaticDirectory serves a fixed set of actors.
type StaticDirectory struct {
	actors map[string]domain.Actor
}

// NewStaticDirectory validates entries and indexes them by id.
func NewStaticDirectory(entries []Entry) (*StaticDirectory, error) {
	d := &StaticDirectory{actors: make(map[string]domain.Actor, len(entries))}
	for i, e := range entries {
		actor, err := e.toActor()
		if err != nil {
			return nil, fmt.Errorf("directory entry %d: %w", i, err)
		}
		if _, dup := d.actors[actor.ID]; dup {
			return nil, fmt.Errorf("directory entry %d: duplicate id %q", i, actor.ID)
		}
		d.actors[actor.ID] = actor
	}
	return d, nil
}

// LoadFile reads a YAML seed of the form `actors: [{id, name, role, ...}]`.
func LoadFile(path string) (*StaticDirectory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML seed.
func Parse(raw []byte) (*StaticDirectory, error) {
	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("decode directory: %w", err)
	}
	return NewStaticDirectory(seed.Actors)
}

// ResolveActor implements Directory.
func (d *StaticDirectory) ResolveActor(_ context.Context, actorID string) (*domain.Actor, error) {
	actor, ok := d.actors[actorID]
	if !ok {
		return nil, ErrUnknownActor
	}
	actor.Classes = append([]string(nil), actor.Classes...)
	return &actor, nil
}

// Len returns the number of known actors.
func (d *StaticDirectory) Len() int {
	return len(d.actors)
}

// Actors returns copies of every actor, ordered by id.
func (d *StaticDirectory) Actors() []domain.Actor {
	out := make([]domain.Actor, 0, len(d.actors))
	for _, a := range d.actors {
		a.Classes = append([]string(nil), a.Classes...)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (e Entry) toActor() (domain.Actor, error) {
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return domain.Actor{}, errors.New("id required")
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(e.Role)))
	if !role.Valid() {
		return domain.Actor{}, fmt.Errorf("invalid role %q", e.Role)
	}
	return domain.Actor{
		ID:         id,
		Name:       strings.TrimSpace(e.Name),
		Role:       role,
		ClassID:    e.ClassID,
		Department: e.Department,
		Classes:    append([]string(nil), e.Classes...),
	}, nil
}

func entryFromActor(a *domain.Actor) Entry {
	return Entry{
		ID:         a.ID,
		Name:       a.Name,
		Role:       string(a.Role),
		ClassID:    a.ClassID,
		Department: a.Department,
		Classes:    a.Classes,
	}
}
