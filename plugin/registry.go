package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/mercato/event"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// Hook implementations are discovered once at registration and cached per
// hook type.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	onInit                 []OnInit
	onShutdown             []OnShutdown
	onEvent                []OnEvent
	onJournalFlushed       []OnJournalFlushed
	onCheckpointSaved      []OnCheckpointSaved
	onCompositeCreated     []OnCompositeCreated
	onCompositeReleased    []OnCompositeReleased
	onConstituentsReleased []OnConstituentsReleased
	onCollectionCreated    []OnCollectionCreated
	onCollectionChanged    []OnCollectionChanged
	onTokensBought         []OnTokensBought
	onItemsBurned          []OnItemsBurned
	onOrderUpdated         []OnOrderUpdated
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-call hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	r.timeout = d
	return r
}

// Register adds a plugin to the registry and caches its hooks.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	var hooks []string
	cache := func(ok bool, name string, add func()) {
		if ok {
			add()
			hooks = append(hooks, name)
		}
	}

	v1, ok := p.(OnInit)
	cache(ok, "OnInit", func() { r.onInit = append(r.onInit, v1) })
	v2, ok := p.(OnShutdown)
	cache(ok, "OnShutdown", func() { r.onShutdown = append(r.onShutdown, v2) })
	v3, ok := p.(OnEvent)
	cache(ok, "OnEvent", func() { r.onEvent = append(r.onEvent, v3) })
	v4, ok := p.(OnJournalFlushed)
	cache(ok, "OnJournalFlushed", func() { r.onJournalFlushed = append(r.onJournalFlushed, v4) })
	v5, ok := p.(OnCheckpointSaved)
	cache(ok, "OnCheckpointSaved", func() { r.onCheckpointSaved = append(r.onCheckpointSaved, v5) })
	v6, ok := p.(OnCompositeCreated)
	cache(ok, "OnCompositeCreated", func() { r.onCompositeCreated = append(r.onCompositeCreated, v6) })
	v7, ok := p.(OnCompositeReleased)
	cache(ok, "OnCompositeReleased", func() { r.onCompositeReleased = append(r.onCompositeReleased, v7) })
	v8, ok := p.(OnConstituentsReleased)
	cache(ok, "OnConstituentsReleased", func() { r.onConstituentsReleased = append(r.onConstituentsReleased, v8) })
	v9, ok := p.(OnCollectionCreated)
	cache(ok, "OnCollectionCreated", func() { r.onCollectionCreated = append(r.onCollectionCreated, v9) })
	v10, ok := p.(OnCollectionChanged)
	cache(ok, "OnCollectionChanged", func() { r.onCollectionChanged = append(r.onCollectionChanged, v10) })
	v11, ok := p.(OnTokensBought)
	cache(ok, "OnTokensBought", func() { r.onTokensBought = append(r.onTokensBought, v11) })
	v12, ok := p.(OnItemsBurned)
	cache(ok, "OnItemsBurned", func() { r.onItemsBurned = append(r.onItemsBurned, v12) })
	v13, ok := p.(OnOrderUpdated)
	cache(ok, "OnOrderUpdated", func() { r.onOrderUpdated = append(r.onOrderUpdated, v13) })

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", hooks,
	)

	return nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Emission
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, m interface{}) {
	r.mu.RLock()
	hooks := r.onInit
	r.mu.RUnlock()

	emit(ctx, r, "OnInit", hooks, func(p OnInit) error { return p.OnInit(ctx, m) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	hooks := r.onShutdown
	r.mu.RUnlock()

	emit(ctx, r, "OnShutdown", hooks, func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitJournalFlushed reports a journal batch write.
func (r *Registry) EmitJournalFlushed(ctx context.Context, count int, elapsed time.Duration) {
	r.mu.RLock()
	hooks := r.onJournalFlushed
	r.mu.RUnlock()

	emit(ctx, r, "OnJournalFlushed", hooks, func(p OnJournalFlushed) error {
		return p.OnJournalFlushed(ctx, count, elapsed)
	})
}

// EmitCheckpointSaved reports a checkpoint write.
func (r *Registry) EmitCheckpointSaved(ctx context.Context, seq uint64, elapsed time.Duration) {
	r.mu.RLock()
	hooks := r.onCheckpointSaved
	r.mu.RUnlock()

	emit(ctx, r, "OnCheckpointSaved", hooks, func(p OnCheckpointSaved) error {
		return p.OnCheckpointSaved(ctx, seq, elapsed)
	})
}

// EmitEvent dispatches a committed event to its typed hook and then to
// every OnEvent hook.
func (r *Registry) EmitEvent(ctx context.Context, rec *event.Record, e event.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch ev := e.(type) {
	case event.CompositeCreated:
		emit(ctx, r, "OnCompositeCreated", r.onCompositeCreated, func(p OnCompositeCreated) error {
			return p.OnCompositeCreated(ctx, ev)
		})
	case event.CompositeReleased:
		emit(ctx, r, "OnCompositeReleased", r.onCompositeReleased, func(p OnCompositeReleased) error {
			return p.OnCompositeReleased(ctx, ev)
		})
	case event.ConstituentsReleased:
		emit(ctx, r, "OnConstituentsReleased", r.onConstituentsReleased, func(p OnConstituentsReleased) error {
			return p.OnConstituentsReleased(ctx, ev)
		})
	case event.CollectionCreated:
		emit(ctx, r, "OnCollectionCreated", r.onCollectionCreated, func(p OnCollectionCreated) error {
			return p.OnCollectionCreated(ctx, ev)
		})
	case event.CollectionExtended, event.CollectionUpdated, event.CollectionDeleted:
		emit(ctx, r, "OnCollectionChanged", r.onCollectionChanged, func(p OnCollectionChanged) error {
			return p.OnCollectionChanged(ctx, e)
		})
	case event.TokensBought:
		emit(ctx, r, "OnTokensBought", r.onTokensBought, func(p OnTokensBought) error {
			return p.OnTokensBought(ctx, ev)
		})
	case event.ItemsBurned:
		emit(ctx, r, "OnItemsBurned", r.onItemsBurned, func(p OnItemsBurned) error {
			return p.OnItemsBurned(ctx, ev)
		})
	case event.OrderStatusUpdated, event.OrderFulfillerUpdated, event.OrderDetailsUpdated:
		emit(ctx, r, "OnOrderUpdated", r.onOrderUpdated, func(p OnOrderUpdated) error {
			return p.OnOrderUpdated(ctx, e)
		})
	}

	emit(ctx, r, "OnEvent", r.onEvent, func(p OnEvent) error { return p.OnEvent(ctx, rec) })
}

// emit calls fn for every hook, logging failures.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, hooks []T, fn func(T) error) {
	for _, p := range hooks {
		if err := r.callWithTimeout(ctx, p.Name(), func() error { return fn(p) }); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
