package domain

import "slices"

// Snapshot is an immutable, versioned view of the library. Accessors hand
// out copies, so a snapshot can be read from any goroutine without locking.
type Snapshot struct {
	version uint64
	assets  []Asset
	index   map[string]int
}

// NewSnapshot builds a snapshot from assets. The slice is copied.
func NewSnapshot(version uint64, assets []Asset) *Snapshot {
	s := &Snapshot{
		version: version,
		assets:  make([]Asset, len(assets)),
		index:   make(map[string]int, len(assets)),
	}
	for i, a := range assets {
		s.assets[i] = a.Clone()
		s.index[a.ID] = i
	}
	return s
}

// EmptySnapshot is the state before the library is loaded.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(0, nil)
}

func (s *Snapshot) Version() uint64 { return s.version }

func (s *Snapshot) Len() int { return len(s.assets) }

// Assets returns a copy of every asset in library order.
func (s *Snapshot) Assets() []Asset {
	out := make([]Asset, len(s.assets))
	for i, a := range s.assets {
		out[i] = a.Clone()
	}
	return out
}

// Get returns a copy of the asset with id.
func (s *Snapshot) Get(id string) (Asset, bool) {
	i, ok := s.index[id]
	if !ok {
		return Asset{}, false
	}
	return s.assets[i].Clone(), true
}

// Contains reports whether id is part of the snapshot.
func (s *Snapshot) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Lookup resolves ids in order, skipping unknown ids.
func (s *Snapshot) Lookup(ids []string) []Asset {
	out := make([]Asset, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.Get(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// Tags returns the distinct tag texts carried by assets in the snapshot,
// in asset order. Used where the persisted insertion order is not needed.
func (s *Snapshot) Tags() []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range s.assets {
		for _, t := range a.Tags {
			if k := FoldKey(t); !seen[k] {
				seen[k] = true
				out = append(out, t)
			}
		}
	}
	return slices.Clip(out)
}
