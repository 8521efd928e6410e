package store

import "github.com/starford/cardbox/internal/models"

func (s *Store) cacheGet(id string) (models.Card, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	c, ok := s.cache[id]
	if !ok {
		return models.Card{}, false
	}
	return c.Clone(), true
}

func (s *Store) generation() uint64 {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.gen
}

func (s *Store) cachePut(c models.Card) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache[c.ID] = c.Clone()
	s.gen++
}

// cachePutIf stores c only if no cache mutation happened since gen was
// read, so a slow read cannot resurrect a card deleted meanwhile.
func (s *Store) cachePutIf(gen uint64, c models.Card) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.gen != gen {
		return
	}
	s.cache[c.ID] = c.Clone()
}

func (s *Store) cacheDelete(id string) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.cache, id)
	s.gen++
}

func (s *Store) cacheReplace(cards []models.Card) {
	m := make(map[string]models.Card, len(cards))
	for _, c := range cards {
		m[c.ID] = c.Clone()
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache = m
	s.gen++
}
