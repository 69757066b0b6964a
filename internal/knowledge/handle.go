package knowledge

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrUnbuilt is returned when the knowledge base has not been built yet.
var ErrUnbuilt = errors.New("knowledge base not built")

// Handle holds the process-wide knowledge base. Readers get an immutable
// snapshot; the only write path is Rebuild, which constructs a fresh base
// and swaps it in atomically. Requests in flight keep the snapshot they
// started with.
type Handle struct {
	current   atomic.Pointer[Base]
	rebuildMu sync.Mutex
}

// NewHandle returns a handle over an already built base.
func NewHandle(b *Base) *Handle {
	h := &Handle{}
	h.current.Store(b)
	return h
}

// Current returns the active base, or ErrUnbuilt before the first build.
func (h *Handle) Current() (*Base, error) {
	b := h.current.Load()
	if b == nil {
		return nil, ErrUnbuilt
	}
	return b, nil
}

// Rebuild builds a new base and swaps it in. Rebuilds are serialized; a
// failed build leaves the previous base serving.
func (h *Handle) Rebuild(opts BuildOptions) error {
	h.rebuildMu.Lock()
	defer h.rebuildMu.Unlock()
	b, err := Build(opts)
	if err != nil {
		return err
	}
	h.current.Store(b)
	return nil
}
