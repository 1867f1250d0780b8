package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/goliatone/go-catalog-cache/cache"
	"github.com/goliatone/go-catalog-cache/catalog"
	"github.com/goliatone/go-catalog-cache/internal/bunstore"
	"github.com/goliatone/go-catalog-cache/internal/memstore"
	"github.com/goliatone/go-catalog-cache/search"
	"github.com/goliatone/go-catalog-cache/stats"
	"github.com/goliatone/go-catalog-cache/store"
)

// Storage backends selectable through StoreConfig.Backend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	// Backend is BackendMemory or BackendSQLite. Empty defaults to memory.
	Backend string
	// DSN is the SQLite data source, e.g. a file path or ":memory:".
	// Ignored by the memory backend.
	DSN string
}

// Config aggregates the configuration of every component the container
// wires together.
type Config struct {
	Store  StoreConfig
	Cache  cache.Config
	Search search.Config
	// Logger receives the catalog and stats diagnostics. Nil falls back to
	// slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a configuration with the in-memory backend and
// default cache and search settings.
func DefaultConfig() Config {
	return Config{
		Store: StoreConfig{Backend: BackendMemory},
		Cache: cache.DefaultConfig(),
	}
}

// Container provides dependency injection for the catalog components.
// It manages singleton instances of the store, the stats cache, the search
// engine, and the catalog service, wired together in the right order.
type Container struct {
	config  Config
	store   store.Store
	cache   cache.Service
	stats   *stats.Cache
	search  *search.Engine
	catalog *catalog.Service

	closer func() error
}

// NewContainer creates a DI container from the provided configuration.
// The store backend is opened, the cache service initialized, and the
// higher-level services wired on top.
func NewContainer(ctx context.Context, config Config) (*Container, error) {
	c := &Container{config: config}

	switch config.Store.Backend {
	case "", BackendMemory:
		c.store = memstore.New()
	case BackendSQLite:
		s, err := bunstore.Open(ctx, config.Store.DSN)
		if err != nil {
			return nil, err
		}
		c.store = s
		c.closer = s.Close
	default:
		return nil, fmt.Errorf("di: unknown store backend %q", config.Store.Backend)
	}

	cacheService, err := cache.NewService(config.Cache)
	if err != nil {
		if c.closer != nil {
			_ = c.closer()
		}
		return nil, err
	}
	c.cache = cacheService

	c.stats = stats.NewCache(c.store, c.cache, config.Logger)
	c.search = search.NewEngine(c.store, config.Search)
	c.catalog = catalog.NewService(c.store, c.stats, config.Logger)

	return c, nil
}

// NewContainerWithDefaults creates a container using DefaultConfig.
// This is a convenience constructor for typical use cases where custom
// configuration is not required.
func NewContainerWithDefaults(ctx context.Context) (*Container, error) {
	return NewContainer(ctx, DefaultConfig())
}

// Store returns the singleton document store instance.
func (c *Container) Store() store.Store {
	return c.store
}

// CacheService returns the singleton cache service instance.
// This allows access to the underlying cache for advanced use cases.
func (c *Container) CacheService() cache.Service {
	return c.cache
}

// Stats returns the singleton stats cache.
func (c *Container) Stats() *stats.Cache {
	return c.stats
}

// Search returns the singleton search engine.
func (c *Container) Search() *search.Engine {
	return c.search
}

// Catalog returns the singleton catalog service.
func (c *Container) Catalog() *catalog.Service {
	return c.catalog
}

// Config returns a copy of the configuration used by this container.
// This is useful for debugging and monitoring purposes.
func (c *Container) Config() Config {
	return c.config
}

// Close releases resources held by the store backend. Safe to call on a
// memory-backed container.
func (c *Container) Close() error {
	if c.closer != nil {
		return c.closer()
	}
	return nil
}
