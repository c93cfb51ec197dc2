package services

import (
	"context"
	"sort"
	"sync"

	"github.com/reportgrid/sqlagent/pkg/models"
)

// fakeRegistry is an in-memory TableRegistryRepository for testing.
// Set listErr/addErr to simulate persistence failures; listHook runs at the
// start of each ListTables call for race orchestration.
type fakeRegistry struct {
	mu     sync.Mutex
	tables map[string]map[string]struct{}

	listErr error
	addErr  error

	listCalls int
	addCalls  int

	listHook func(call int)
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{tables: make(map[string]map[string]struct{})}
}

func (f *fakeRegistry) seed(schema string, names ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	schema = models.NormalizeIdentifier(schema)
	if f.tables[schema] == nil {
		f.tables[schema] = make(map[string]struct{})
	}
	for _, n := range names {
		f.tables[schema][models.NormalizeIdentifier(n)] = struct{}{}
	}
}

func (f *fakeRegistry) ListTables(ctx context.Context, schema string) ([]string, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	hook := f.listHook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	set := f.tables[models.NormalizeIdentifier(schema)]
	names := make([]string, 0, len(set))
	for n := range set {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeRegistry) AddTables(ctx context.Context, schema string, names []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.addCalls++
	if f.addErr != nil {
		return 0, f.addErr
	}

	schema = models.NormalizeIdentifier(schema)
	if f.tables[schema] == nil {
		f.tables[schema] = make(map[string]struct{})
	}

	inserted := 0
	for _, n := range names {
		n = models.NormalizeIdentifier(n)
		if _, ok := f.tables[schema][n]; ok {
			continue
		}
		f.tables[schema][n] = struct{}{}
		inserted++
	}
	return inserted, nil
}
