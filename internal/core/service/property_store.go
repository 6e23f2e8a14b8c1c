package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/porchlite/porchlite/internal/core/domain"
	"github.com/porchlite/porchlite/internal/core/ports"
)

// PropertyStore holds the properties available to the signed-in user and
// the current selection. Every load is tagged with a generation number;
// results from an older generation are discarded.
type PropertyStore struct {
	source  ports.PropertySource
	storage ports.SelectionStorage
	obs     ports.Observer
	log     zerolog.Logger
	now     func() time.Time

	mu     sync.Mutex
	state  domain.PropertyState
	gen    uint64
	cancel context.CancelFunc
	closed bool
	sel    uint64 // bumped on every selection change

	// persistMu orders storage writes; written is the sel of the last one.
	persistMu sync.Mutex
	written   uint64

	subs subscribers[domain.PropertyState]
}

// NewPropertyStore returns an empty store. storage may be nil.
func NewPropertyStore(source ports.PropertySource, storage ports.SelectionStorage, obs ports.Observer, log zerolog.Logger) *PropertyStore {
	if obs == nil {
		obs = ports.NopObserver{}
	}
	return &PropertyStore{
		source:  source,
		storage: storage,
		obs:     obs,
		log:     log.With().Str("component", "property_store").Logger(),
		now:     time.Now,
	}
}

// State returns a snapshot of the current property state.
func (p *PropertyStore) State() domain.PropertyState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// Subscribe registers fn for every published state change.
func (p *PropertyStore) Subscribe(fn func(domain.PropertyState)) (unsubscribe func()) {
	return p.subs.add(fn)
}

// Load fetches the property list for userID and reconciles the selection.
// Errors from the source are returned unmodified; the last known list is
// kept and the store is still marked initialized.
func (p *PropertyStore) Load(ctx context.Context, userID string) error {
	fetch, err := p.PrepareLoad(ctx, userID)
	if err != nil {
		return err
	}
	return fetch()
}

// PrepareLoad synchronously starts a new load generation and returns the
// fetch to run. Any in-flight fetch is cancelled. When userID differs from
// the user the list belongs to, the list and selection are cleared first so
// no other user's data stays visible.
func (p *PropertyStore) PrepareLoad(ctx context.Context, userID string) (fetch func() error, err error) {
	if userID == "" {
		return nil, domain.ErrNoSession
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, domain.ErrStoreClosed
	}
	if p.cancel != nil {
		p.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.gen++
	gen := p.gen
	if p.state.UserID != userID {
		p.state = domain.PropertyState{UserID: userID}
	}
	p.state.Loading = true
	snapshot := p.snapshotLocked()
	p.mu.Unlock()

	p.publish(snapshot)
	return func() error {
		defer cancel()
		return p.fetch(fetchCtx, gen, userID)
	}, nil
}

func (p *PropertyStore) fetch(ctx context.Context, gen uint64, userID string) error {
	start := p.now()
	props, err := p.source.ListForUser(ctx, userID)
	persisted := ""
	if err == nil {
		persisted = p.readKey(ctx, ports.KeyCurrentProperty)
	}
	took := p.now().Sub(start)

	p.mu.Lock()
	if p.closed || gen != p.gen {
		p.mu.Unlock()
		p.obs.StaleResultDiscarded("properties")
		p.log.Debug().Uint64("generation", gen).Msg("discarding stale property load")
		return nil
	}

	if err != nil {
		p.state.Loading = false
		p.state.Initialized = true
		p.state.Err = err
		snapshot := p.snapshotLocked()
		p.mu.Unlock()

		p.obs.PropertiesLoaded(0, took, err)
		p.log.Warn().Err(err).Str("user_id", userID).Msg("property load failed")
		p.publish(snapshot)
		return err
	}

	p.state.Properties = append([]domain.Property(nil), props...)
	selected := reconcileSelection(p.state.CurrentPropertyID, persisted, p.state.Properties)
	p.state.CurrentPropertyID, p.state.CurrentTenantID = "", ""
	if selected != nil {
		p.state.CurrentPropertyID = selected.ID
		p.state.CurrentTenantID = selected.TenantID
	}
	p.state.Loading = false
	p.state.Initialized = true
	p.state.Err = nil
	p.sel++
	sel := p.sel
	snapshot := p.snapshotLocked()
	p.mu.Unlock()

	switch {
	case selected != nil && selected.ID != persisted:
		p.persist(ctx, sel, selected)
	case selected == nil && persisted != "":
		p.log.Debug().Str("property_id", persisted).Msg("dropping stale persisted selection")
		p.persist(ctx, sel, nil)
	}

	p.obs.PropertiesLoaded(len(props), took, nil)
	p.log.Info().Str("user_id", userID).Int("count", len(props)).Str("current_property_id", snapshot.CurrentPropertyID).Msg("properties loaded")
	p.publish(snapshot)
	return nil
}

// reconcileSelection keeps the in-memory selection when it is still listed,
// otherwise adopts the persisted id, otherwise picks the only property.
func reconcileSelection(current, persisted string, props []domain.Property) *domain.Property {
	state := domain.PropertyState{Properties: props}
	for _, id := range []string{current, persisted} {
		if prop := state.Find(id); prop != nil {
			return prop
		}
	}
	if len(props) == 1 {
		prop := props[0]
		return &prop
	}
	return nil
}

// SetCurrentProperty selects the property with id and persists the choice.
// An empty id clears the selection.
func (p *PropertyStore) SetCurrentProperty(ctx context.Context, id string) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return domain.ErrStoreClosed
	}
	var selected *domain.Property
	if id != "" {
		selected = p.state.Find(id)
		if selected == nil {
			p.mu.Unlock()
			return domain.ErrPropertyNotFound
		}
	}
	p.state.CurrentPropertyID, p.state.CurrentTenantID = "", ""
	if selected != nil {
		p.state.CurrentPropertyID = selected.ID
		p.state.CurrentTenantID = selected.TenantID
	}
	p.sel++
	sel := p.sel
	snapshot := p.snapshotLocked()
	p.mu.Unlock()

	p.persist(ctx, sel, selected)
	p.publish(snapshot)
	return nil
}

// Reset empties the store and its persisted selection. In-flight loads are
// cancelled and their results discarded.
func (p *PropertyStore) Reset(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
	p.state = domain.PropertyState{}
	p.sel++
	sel := p.sel
	snapshot := p.snapshotLocked()
	p.mu.Unlock()

	p.persist(ctx, sel, nil)
	p.log.Debug().Msg("property store reset")
	p.publish(snapshot)
}

// Close cancels any in-flight load and stops publishing.
func (p *PropertyStore) Close() {
	p.mu.Lock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.subs.clear()
}

func (p *PropertyStore) readKey(ctx context.Context, key string) string {
	if p.storage == nil {
		return ""
	}
	v, err := p.storage.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrNotFound) {
			p.log.Debug().Err(err).Str("key", key).Msg("selection storage read failed")
		}
		return ""
	}
	return v
}

// persist writes the selection numbered sel. A write for an older selection
// than the last one written is skipped, so storage ends up matching memory
// even when concurrent changes reach this point out of order.
func (p *PropertyStore) persist(ctx context.Context, sel uint64, selected *domain.Property) {
	if p.storage == nil {
		return
	}
	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	if sel <= p.written {
		p.log.Debug().Uint64("selection", sel).Msg("skipping superseded selection write")
		return
	}
	p.written = sel
	ctx = context.WithoutCancel(ctx)

	var err error
	if selected == nil {
		err = p.storage.Delete(ctx, ports.KeyCurrentProperty, ports.KeyCurrentTenant)
	} else {
		err = p.storage.Set(ctx, ports.KeyCurrentProperty, selected.ID)
		if err == nil {
			err = p.storage.Set(ctx, ports.KeyCurrentTenant, selected.TenantID)
		}
	}
	if err != nil {
		p.log.Warn().Err(err).Msg("selection not persisted")
	}
}

func (p *PropertyStore) snapshotLocked() domain.PropertyState {
	s := p.state
	if s.Properties != nil {
		s.Properties = append([]domain.Property(nil), s.Properties...)
	}
	return s
}

func (p *PropertyStore) publish(state domain.PropertyState) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return
	}
	p.subs.publish(state)
}
