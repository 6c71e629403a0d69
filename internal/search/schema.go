package search

import (
	"context"
	"errors"
	"sync/atomic"

	applog "shoplite/internal/log"
)

const (
	IndexName   = "idx:products"
	KeyPrefix   = "product:"
	SuggestDict = "suggest:products"
)

func productKey(id string) string { return KeyPrefix + id }

// indexFields is the required schema. Versioning is by field presence: an
// existing index missing any of these names is stale and gets rebuilt.
var indexFields = []FieldDef{
	{Name: "name", Type: "TEXT", Weight: 5, Sortable: true},
	{Name: "slug", Type: "TEXT", NoStem: true},
	{Name: "price", Type: "NUMERIC", Sortable: true},
	{Name: "salesCount", Type: "NUMERIC", Sortable: true},
	{Name: "rating", Type: "NUMERIC", Sortable: true},
	{Name: "location", Type: "TAG"},
	{Name: "status", Type: "TAG"},
	{Name: "systemTags", Type: "TAG"},
	{Name: "createdAt", Type: "NUMERIC", Sortable: true},
}

// Readiness is the index lifecycle state reads consult instead of re-probing
// the store on every request.
type Readiness int32

const (
	Uninitialized Readiness = iota
	Verifying
	Ready
	Degraded
)

func (r Readiness) String() string {
	switch r {
	case Verifying:
		return "verifying"
	case Ready:
		return "ready"
	case Degraded:
		return "degraded"
	default:
		return "uninitialized"
	}
}

// SchemaManager verifies the index exists with the current schema, rebuilding
// it when absent or stale, and tracks readiness for the query planner.
type SchemaManager struct {
	idx    IndexStore
	syncer *Syncer
	state  atomic.Int32
}

func NewSchemaManager(idx IndexStore, syncer *Syncer) *SchemaManager {
	return &SchemaManager{idx: idx, syncer: syncer}
}

func (m *SchemaManager) State() Readiness { return Readiness(m.state.Load()) }
func (m *SchemaManager) Ready() bool      { return m.State() == Ready }

// Ensure runs the startup sequence. It never returns an error: any failure
// leaves the manager Degraded and reads stay on the source store.
func (m *SchemaManager) Ensure(ctx context.Context) {
	m.state.Store(int32(Verifying))

	fields, err := m.idx.IndexFields(ctx, IndexName)
	switch {
	case errors.Is(err, ErrNoIndex):
		if !m.rebuild(ctx, false) {
			return
		}
	case err != nil:
		m.degrade("index.verify", err)
		return
	case missingAnyField(fields):
		applog.Info(nil, "index.schema.stale", map[string]any{"have": fields})
		if !m.rebuild(ctx, true) {
			return
		}
	}

	m.state.Store(int32(Ready))
	applog.Info(nil, "index.ready", nil)
}

func (m *SchemaManager) rebuild(ctx context.Context, drop bool) bool {
	if drop {
		if err := m.idx.DropIndex(ctx, IndexName); err != nil {
			m.degrade("index.drop", err)
			return false
		}
	}
	if err := m.idx.CreateIndex(ctx, IndexName, KeyPrefix, indexFields); err != nil {
		m.degrade("index.create", err)
		return false
	}
	n, err := m.syncer.FullSync(ctx)
	if err != nil {
		m.degrade("index.fullsync", err)
		return false
	}
	applog.Info(nil, "index.rebuilt", map[string]any{"synced": n})
	return true
}

func (m *SchemaManager) degrade(action string, err error) {
	m.state.Store(int32(Degraded))
	applog.Error(nil, action, err, nil)
}

func missingAnyField(have []string) bool {
	present := make(map[string]struct{}, len(have))
	for _, f := range have {
		present[f] = struct{}{}
	}
	for _, f := range indexFields {
		if _, ok := present[f.Name]; !ok {
			return true
		}
	}
	return false
}
