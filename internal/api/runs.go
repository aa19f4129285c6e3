package api

import (
	"sort"
	"sync"

	"itinopt/internal/opt"
)

type runKey struct {
	tenant  string
	dataset string
	status  string
}

// runLog keeps the latest planning run per tenant, dataset and status. It
// backs the plan-metrics endpoint when the store has nothing to report.
type runLog struct {
	mu   sync.Mutex
	runs map[runKey]opt.RunStats
}

func newRunLog() *runLog {
	return &runLog{runs: map[runKey]opt.RunStats{}}
}

func (l *runLog) record(tenant, dataset string, s opt.RunStats) {
	l.mu.Lock()
	l.runs[runKey{tenant: tenant, dataset: dataset, status: s.Status}] = s
	l.mu.Unlock()
}

// latest returns one run per status, ordered by status.
func (l *runLog) latest(tenant, dataset string) []opt.RunStats {
	l.mu.Lock()
	out := make([]opt.RunStats, 0, 4)
	for k, v := range l.runs {
		if k.tenant == tenant && k.dataset == dataset {
			out = append(out, v)
		}
	}
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out
}

// forget drops every run recorded for a dataset.
func (l *runLog) forget(tenant, dataset string) {
	l.mu.Lock()
	for k := range l.runs {
		if k.tenant == tenant && k.dataset == dataset {
			delete(l.runs, k)
		}
	}
	l.mu.Unlock()
}
