// Package lifecycle holds the status machines for orders, quotes and tickets.
// Every allowed edge lives in one adjacency map per entity; nothing else in the
// service decides whether a status change is legal.
package lifecycle

import (
	"sort"
	"time"

	apperrors "github.com/spec-kit/shop-portal/pkg/util/errorutil"
)

// Machine is a closed state machine over status type S.
type Machine[S ~string] struct {
	entity      string
	initial     S
	transitions map[S][]S
	locked      map[S]struct{}
	undeletable map[S]struct{}
}

func newMachine[S ~string](entity string, initial S, transitions map[S][]S, locked, undeletable []S) *Machine[S] {
	m := &Machine[S]{
		entity:      entity,
		initial:     initial,
		transitions: transitions,
		locked:      make(map[S]struct{}, len(locked)),
		undeletable: make(map[S]struct{}, len(undeletable)),
	}
	for _, s := range locked {
		m.locked[s] = struct{}{}
	}
	for _, s := range undeletable {
		m.undeletable[s] = struct{}{}
	}
	return m
}

// Initial is the status every new entity starts in.
func (m *Machine[S]) Initial() S {
	return m.initial
}

// Known reports whether s is a state of this machine.
func (m *Machine[S]) Known(s S) bool {
	_, ok := m.transitions[s]
	return ok
}

// Allowed returns the targets reachable from current in one step.
func (m *Machine[S]) Allowed(current S) []S {
	out := append([]S(nil), m.transitions[current]...)
	return out
}

// CanTransition reports whether current -> target is an edge.
func (m *Machine[S]) CanTransition(current, target S) bool {
	for _, candidate := range m.transitions[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// Check fails with InvalidTransition when current -> target is not an edge.
func (m *Machine[S]) Check(current, target S) error {
	if !m.CanTransition(current, target) {
		return apperrors.NewInvalidTransition(m.entity, string(current), string(target))
	}
	return nil
}

// CheckFrom additionally asserts that current is one of the expected source states.
func (m *Machine[S]) CheckFrom(current, target S, from ...S) error {
	if len(from) > 0 {
		expected := false
		for _, s := range from {
			if s == current {
				expected = true
				break
			}
		}
		if !expected {
			return apperrors.NewInvalidTransition(m.entity, string(current), string(target))
		}
	}
	return m.Check(current, target)
}

// Terminal reports whether no edge leaves s.
func (m *Machine[S]) Terminal(s S) bool {
	return len(m.transitions[s]) == 0
}

// Locked reports whether field edits are refused in s.
func (m *Machine[S]) Locked(s S) bool {
	_, ok := m.locked[s]
	return ok
}

// EnsureMutable fails with EntityLocked when s is a locked state.
func (m *Machine[S]) EnsureMutable(s S) error {
	if m.Locked(s) {
		return apperrors.NewEntityLocked(m.entity, string(s))
	}
	return nil
}

// EnsureDeletable fails with DeletionForbidden when s forbids deletion.
func (m *Machine[S]) EnsureDeletable(s S) error {
	if _, ok := m.undeletable[s]; ok {
		return apperrors.NewDeletionForbidden(m.entity, string(s))
	}
	return nil
}

// Edges returns every (from, to) pair, sorted, for auditing the table as data.
func (m *Machine[S]) Edges() [][2]S {
	var edges [][2]S
	for from, targets := range m.transitions {
		for _, to := range targets {
			edges = append(edges, [2]S{from, to})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// setOnce stamps field with now unless it already holds a value.
func setOnce(field **time.Time, now time.Time) {
	if *field == nil {
		t := now
		*field = &t
	}
}
