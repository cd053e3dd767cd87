package metrics

import (
	"sort"
	"sync"
	"time"
)

// Monitor accumulates the time spent in each named stage of a run.
type Monitor struct {
	m      sync.Mutex
	stages map[string]time.Duration
	order  []string
}

func NewMonitor() *Monitor {
	return &Monitor{
		stages: make(map[string]time.Duration),
		order:  make([]string, 0),
	}
}

func (p *Monitor) AddStage(stage string, executionTime time.Duration) {
	p.m.Lock()
	defer p.m.Unlock()
	if _, ok := p.stages[stage]; !ok {
		p.order = append(p.order, stage)
	}
	p.stages[stage] += executionTime
}

// Track starts timing a stage, the returned function stops it.
func (p *Monitor) Track(stage string) func() {
	start := time.Now()
	return func() {
		p.AddStage(stage, time.Since(start))
	}
}

func (p *Monitor) Stage(stage string) time.Duration {
	p.m.Lock()
	defer p.m.Unlock()
	return p.stages[stage]
}

// Stages returns the stage names in the order they were first recorded.
func (p *Monitor) Stages() []string {
	p.m.Lock()
	defer p.m.Unlock()
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

func (p *Monitor) Total() time.Duration {
	p.m.Lock()
	defer p.m.Unlock()
	var total time.Duration
	for _, d := range p.stages {
		total += d
	}
	return total
}

// Slowest returns the stage that took the longest.
func (p *Monitor) Slowest() (string, time.Duration) {
	p.m.Lock()
	defer p.m.Unlock()
	names := make([]string, len(p.order))
	copy(names, p.order)
	sort.SliceStable(names, func(i, j int) bool {
		return p.stages[names[i]] > p.stages[names[j]]
	})
	if len(names) == 0 {
		return "", 0
	}
	return names[0], p.stages[names[0]]
}
