package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/spigell/hireflow/internal/domain"
)

// Memory is a process-local Store.
type Memory struct {
	mu         sync.RWMutex
	candidates map[string]*domain.Candidate
}

func NewMemory() *Memory {
	return &Memory{candidates: make(map[string]*domain.Candidate)}
}

func (m *Memory) Insert(ctx context.Context, c *domain.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[c.ID]; ok {
		return fmt.Errorf("candidate %s already exists", c.ID)
	}
	m.candidates[c.ID] = clone(c)
	return nil
}

func (m *Memory) UpdateOnboarding(ctx context.Context, id string, plan *domain.OnboardingPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.candidates[id]
	if !ok {
		return ErrNotFound
	}
	c.Onboarding = clonePlan(plan)
	return nil
}

func (m *Memory) Get(ctx context.Context, id string) (*domain.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (m *Memory) List(ctx context.Context) ([]*domain.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Candidate, 0, len(m.candidates))
	for _, c := range m.candidates {
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Close() error { return nil }

func clone(c *domain.Candidate) *domain.Candidate {
	cp := *c
	cp.Profile.Skills = slices.Clone(c.Profile.Skills)
	cp.Onboarding = clonePlan(c.Onboarding)
	return &cp
}

func clonePlan(p *domain.OnboardingPlan) *domain.OnboardingPlan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Milestones = slices.Clone(p.Milestones)
	cp.LearningItems = slices.Clone(p.LearningItems)
	return &cp
}
