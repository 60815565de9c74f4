package document

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// ChangeKind is a bitmask describing what a commit changed.
type ChangeKind uint8

const (
	// ChangeSelection covers selection, focus and typing-state changes.
	ChangeSelection ChangeKind = 1 << iota
	// ChangeContent covers block and text changes.
	ChangeContent
)

// Has reports whether k includes other.
func (k ChangeKind) Has(other ChangeKind) bool {
	return k&other != 0
}

// String implements fmt.Stringer.
func (k ChangeKind) String() string {
	switch {
	case k.Has(ChangeContent) && k.Has(ChangeSelection):
		return "content+selection"
	case k.Has(ChangeContent):
		return "content"
	case k.Has(ChangeSelection):
		return "selection"
	}
	return "none"
}

// Change is delivered to listeners after a commit.
type Change struct {
	Kind      ChangeKind
	Version   uint64
	Selection Selection
}

// Listener observes committed changes.
type Listener func(Change)

// Session is a live document with a selection.
// It is safe for concurrent reads; transactions do not nest.
type Session struct {
	mu      sync.RWMutex
	id      string
	st      state
	version uint64

	inTx atomic.Bool

	listenersMu  sync.Mutex
	listeners    map[int]Listener
	nextListener int
}

// New creates a session over blocks with the cursor at the start.
// An empty document gets one empty paragraph.
func New(blocks ...Block) *Session {
	if len(blocks) == 0 {
		blocks = []Block{Paragraph()}
	}
	st := state{blocks: make([]Block, len(blocks))}
	for i, b := range blocks {
		st.blocks[i] = b.clone()
	}
	return &Session{
		id:        uuid.NewString(),
		st:        st,
		listeners: make(map[int]Listener),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Version returns the commit counter.
func (s *Session) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Selection returns the current selection.
func (s *Session) Selection() Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.sel
}

// Focused reports whether the editor has focus.
func (s *Session) Focused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.focused
}

// MarkState reports how mark m applies to the current selection.
func (s *Session) MarkState(m MarkType) MarkState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.markState(m)
}

// BlockAt returns the type of the block containing p.
func (s *Session) BlockAt(p Position) (BlockInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.blockAt(p)
}

// Len returns the number of blocks.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.st.blocks)
}

// Blocks returns a copy of the document blocks.
func (s *Session) Blocks() []Block {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Block, len(s.st.blocks))
	for i, b := range s.st.blocks {
		out[i] = b.clone()
	}
	return out
}

// Select moves the selection. Typing state is cleared.
func (s *Session) Select(sel Selection) error {
	return s.Transact(func(tx *Tx) error {
		return tx.Select(sel).Err()
	})
}

// Blur drops editor focus.
func (s *Session) Blur() {
	_ = s.Transact(func(tx *Tx) error {
		if tx.st.focused {
			tx.st.focused = false
			tx.changed |= ChangeSelection
		}
		return nil
	})
}

// Transact runs fn against a private copy of the document and commits it
// atomically when fn and every chained operation succeed. Nothing is visible
// to readers or listeners before commit; on error the copy is discarded.
func (s *Session) Transact(fn func(tx *Tx) error) error {
	if !s.inTx.CompareAndSwap(false, true) {
		return ErrTransactionInProgress
	}
	defer s.inTx.Store(false)

	s.mu.RLock()
	tx := &Tx{st: s.st.clone()}
	s.mu.RUnlock()

	if err := fn(tx); err != nil {
		return err
	}
	if tx.err != nil {
		return tx.err
	}
	if tx.changed == 0 {
		return nil
	}

	s.mu.Lock()
	s.st = tx.st
	s.version++
	change := Change{Kind: tx.changed, Version: s.version, Selection: s.st.sel}
	s.mu.Unlock()

	s.notify(change)
	return nil
}

// OnChange registers a listener. The returned function removes it.
func (s *Session) OnChange(l Listener) (cancel func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = l

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) notify(c Change) {
	s.listenersMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	s.listenersMu.Unlock()

	// Registration order.
	slices.Sort(ids)
	for _, id := range ids {
		s.listenersMu.Lock()
		l, ok := s.listeners[id]
		s.listenersMu.Unlock()
		if ok {
			l(c)
		}
	}
}
