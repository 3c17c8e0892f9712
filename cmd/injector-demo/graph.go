package main

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/kbukum/injector/bootstrap"
	"github.com/kbukum/injector/di"
	"github.com/kbukum/injector/logger"
)

// Store is the storage backend contract. Several backends are registered
// under StorageKey and the catalog writes to all of them.
type Store interface {
	Name() string
	Put(key, value string) error
	Keys() []string
}

// Sink receives catalog events when one is registered.
type Sink interface {
	Record(event string, fields map[string]interface{})
}

var (
	// StorageKey groups every Store registration.
	StorageKey = di.NewKey("storage")
	// SinkToken is optional: the catalog runs without it.
	SinkToken = di.Name("metrics.sink")
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore { return &memoryStore{data: make(map[string]string)} }

func (m *memoryStore) Name() string { return "memory" }

func (m *memoryStore) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// journalStore appends every write to a bounded journal. Closing it reports
// how many entries were dropped.
type journalStore struct {
	mu      sync.Mutex
	limit   int
	entries []string
	dropped int
	log     *logger.Logger
}

func newJournalStore(limit int, log *logger.Logger) (*journalStore, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("journal limit must be positive, got %d", limit)
	}
	return &journalStore{limit: limit, log: log.WithComponent("journal")}, nil
}

func (j *journalStore) Name() string { return "journal" }

func (j *journalStore) Put(key, value string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.entries) == j.limit {
		j.entries = j.entries[1:]
		j.dropped++
	}
	j.entries = append(j.entries, key+"="+value)
	return nil
}

func (j *journalStore) Keys() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

func (j *journalStore) Stop(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.log.Info("journal closed", logger.Fields("entries", len(j.entries), "dropped", j.dropped))
	return nil
}

type logSink struct{ log *logger.Logger }

func (s *logSink) Record(event string, fields map[string]interface{}) {
	s.log.Info(event, fields)
}

// Catalog writes items to every registered store.
type Catalog struct {
	name   string
	stores []Store
	sink   Sink
}

func newCatalog(stores []Store, sink Sink, name string) *Catalog {
	return &Catalog{name: name, stores: stores, sink: sink}
}

// Add writes key to every store.
func (c *Catalog) Add(key, value string) error {
	for _, s := range c.stores {
		if err := s.Put(key, value); err != nil {
			return fmt.Errorf("%s: %w", s.Name(), err)
		}
	}
	if c.sink != nil {
		c.sink.Record("catalog item added", logger.Fields("catalog", c.name, "key", key, "stores", len(c.stores)))
	}
	return nil
}

// Stores returns the backends in registration order.
func (c *Catalog) Stores() []Store { return c.stores }

// classes declares the demo graph.
type classes struct {
	memory  *di.Class
	journal *di.Class
	sink    *di.Class
	catalog *di.Class
}

func newClasses(log *logger.Logger) classes {
	return classes{
		memory: di.MustClass("memory-store", func() Store { return newMemoryStore() }),
		journal: di.MustClass("journal-store",
			func(limit int) (Store, error) { return newJournalStore(limit, log) },
			di.InjectOne(0, bootstrap.ConfigToken("storage.journal_limit"))),
		sink: di.MustClass("log-sink", func() Sink { return &logSink{log: log.WithComponent("sink")} }),
		catalog: di.MustClass("catalog", newCatalog,
			di.InjectAll(0, StorageKey),
			di.InjectOneOrNone(1, SinkToken),
			di.InjectOne(2, bootstrap.ConfigToken("catalog.name"))),
	}
}

// register binds the graph into c. Each backend is declared under its own
// class token and aliased into StorageKey, so resolving either way yields the
// same singleton. The sink is only bound when withSink is set.
func (cl classes) register(c *di.Container, withSink bool) {
	c.Declare(cl.memory)
	c.Declare(cl.journal)
	c.RegisterBatch(
		di.Bind(StorageKey, di.AliasOf(cl.memory)),
		di.Bind(StorageKey, di.AliasOf(cl.journal)),
	)
	if withSink {
		c.Register(SinkToken, di.ClassOf(cl.sink, di.Singleton))
	}
	c.Declare(cl.catalog)
}
