// Package fulfillment holds the directory of fulfillment partners: the
// off-platform parties that ship goods and take a share of each sale.
package fulfillment

import (
	"sync"

	"github.com/xraph/mercato/access"
	"github.com/xraph/mercato/errs"
	"github.com/xraph/mercato/id"
	"github.com/xraph/mercato/types"
)

// Fulfiller is a payout address and its share of each sale.
type Fulfiller struct {
	ID      uint64        `json:"id"`
	Address types.Address `json:"address"`
	Share   types.Bps     `json:"share_bps"`
}

// Directory resolves fulfillers by id.
type Directory interface {
	Fulfiller(id uint64) (Fulfiller, bool)
	FulfillerExists(id uint64) bool
}

// Registry is an in-memory Directory administered through an Authorizer.
type Registry struct {
	mu         sync.RWMutex
	auth       access.Authorizer
	seq        *id.Sequence
	fulfillers map[uint64]Fulfiller
}

var _ Directory = (*Registry)(nil)

// NewRegistry creates an empty registry. Fulfiller ids start at 1.
func NewRegistry(auth access.Authorizer) *Registry {
	return &Registry{
		auth:       auth,
		seq:        id.NewSequence(0),
		fulfillers: make(map[uint64]Fulfiller),
	}
}

// Fulfiller implements Directory.
func (r *Registry) Fulfiller(fid uint64) (Fulfiller, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.fulfillers[fid]
	return f, ok
}

// FulfillerExists implements Directory.
func (r *Registry) FulfillerExists(fid uint64) bool {
	_, ok := r.Fulfiller(fid)
	return ok
}

// Create registers a fulfiller. Admin only.
func (r *Registry) Create(caller types.Address, share types.Bps, addr types.Address) (uint64, error) {
	if err := access.Require(r.auth, caller, access.RoleAdmin); err != nil {
		return 0, err
	}
	if !share.Valid() {
		return 0, errs.ErrInvalidShare
	}
	if addr.IsZero() {
		return 0, errs.ErrInvalidAddress
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	fid := r.seq.Next()
	r.fulfillers[fid] = Fulfiller{ID: fid, Address: addr, Share: share}
	return fid, nil
}

// Remove deletes a fulfiller. Admin only. The id is not reissued.
func (r *Registry) Remove(caller types.Address, fid uint64) error {
	if err := access.Require(r.auth, caller, access.RoleAdmin); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fulfillers[fid]; !ok {
		return errs.ErrFulfillerNotFound
	}
	delete(r.fulfillers, fid)
	return nil
}

// UpdateAddress moves the payout address. Only the current address may.
func (r *Registry) UpdateAddress(caller types.Address, fid uint64, addr types.Address) error {
	if addr.IsZero() {
		return errs.ErrInvalidAddress
	}
	return r.update(caller, fid, func(f *Fulfiller) { f.Address = addr })
}

// UpdateShare changes the fulfiller's share. Only the fulfiller may.
func (r *Registry) UpdateShare(caller types.Address, fid uint64, share types.Bps) error {
	if !share.Valid() {
		return errs.ErrInvalidShare
	}
	return r.update(caller, fid, func(f *Fulfiller) { f.Share = share })
}

func (r *Registry) update(caller types.Address, fid uint64, fn func(*Fulfiller)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fulfillers[fid]
	if !ok {
		return errs.ErrFulfillerNotFound
	}
	if f.Address != caller {
		return errs.ErrNotFulfiller
	}
	fn(&f)
	r.fulfillers[fid] = f
	return nil
}
