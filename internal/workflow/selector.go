package workflow

import (
	"crypto/rand"
	"math/big"
	"sort"
	"sync"
)

// Selector picks workflows at random in proportion to their weights.
type Selector struct {
	mu          sync.RWMutex
	workflows   []weightedWorkflow
	totalWeight int64
}

type weightedWorkflow struct {
	def              Definition
	cumulativeWeight int64
}

// NewSelector creates a selector over defs, in the given order.
func NewSelector(defs []Definition) *Selector {
	s := &Selector{}
	s.Update(defs)
	return s
}

// Update replaces the selectable workflows.
func (s *Selector) Update(defs []Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()

	workflows := make([]weightedWorkflow, 0, len(defs))
	var cumulative int64
	for _, def := range defs {
		weight := int64(def.Weight)
		if weight <= 0 {
			weight = 1
		}
		cumulative += weight
		workflows = append(workflows, weightedWorkflow{def: def, cumulativeWeight: cumulative})
	}
	s.workflows = workflows
	s.totalWeight = cumulative
}

// Select returns a workflow, or false when there is none to pick.
func (s *Selector) Select() (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.workflows) == 0 {
		return Definition{}, false
	}

	randomVal, err := rand.Int(rand.Reader, big.NewInt(s.totalWeight))
	if err != nil {
		return s.workflows[0].def, true
	}
	target := randomVal.Int64()

	idx := sort.Search(len(s.workflows), func(i int) bool {
		return s.workflows[i].cumulativeWeight > target
	})
	if idx >= len(s.workflows) {
		idx = len(s.workflows) - 1
	}
	return s.workflows[idx].def, true
}

// Count returns the number of selectable workflows.
func (s *Selector) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workflows)
}

// TotalWeight returns the sum of the effective weights.
func (s *Selector) TotalWeight() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalWeight
}
