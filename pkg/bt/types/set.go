package types

var _sentinel = struct{}{}

// Set is a plain set of comparable keys. It is not safe for concurrent use.
type Set[K comparable] struct {
	items map[K]struct{}
}

func NewSet[K comparable](all ...K) *Set[K] {
	s := &Set[K]{
		items: make(map[K]struct{}, len(all)),
	}
	s.PutAll(all)
	return s
}

// All returns the keys in no particular order.
func (s *Set[K]) All() []K {
	all := make([]K, 0, len(s.items))
	for k := range s.items {
		all = append(all, k)
	}
	return all
}

func (s *Set[K]) Len() int {
	return len(s.items)
}

// Put adds v and reports whether it was not already present.
func (s *Set[K]) Put(v K) bool {
	if _, ok := s.items[v]; ok {
		return false
	}
	s.items[v] = _sentinel
	return true
}

func (s *Set[K]) PutAll(all []K) {
	for _, item := range all {
		s.items[item] = _sentinel
	}
}

func (s *Set[K]) Has(v K) bool {
	_, ok := s.items[v]
	return ok
}

func (s *Set[K]) Del(v K) {
	delete(s.items, v)
}
