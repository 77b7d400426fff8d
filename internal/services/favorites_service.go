package services

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"airender/internal/apperr"
	"airender/internal/logging"
	"airender/internal/storage"
)

const favoritesKey = "favorites.json"

type FavoritesService interface {
	IsFavorite(id string) bool
	// Toggle flips id and returns the new state.
	Toggle(id string) (bool, error)
	IDs() []string
}

// favoritesService keeps the set in memory and rewrites favorites.json on
// every change. Ids may outlive the sessions they point to.
type favoritesService struct {
	docs   *storage.DocStore
	log    *zap.Logger
	mu     sync.Mutex
	ids    map[string]struct{}
	loaded bool
}

func NewFavoritesService(docs *storage.DocStore, log *zap.Logger) FavoritesService {
	return &favoritesService{docs: docs, log: logging.OrNop(log).Named("favorites")}
}

func (s *favoritesService) ensureLoadedLocked() {
	if s.loaded {
		return
	}
	s.loaded = true
	s.ids = make(map[string]struct{})

	var list []string
	if err := s.docs.ReadJSON(favoritesKey, &list); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("favorites unreadable, starting empty", zap.Error(err))
		}
		return
	}
	for _, id := range list {
		if id = strings.TrimSpace(id); id != "" {
			s.ids[id] = struct{}{}
		}
	}
}

func (s *favoritesService) IsFavorite(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	_, ok := s.ids[id]
	return ok
}

func (s *favoritesService) Toggle(id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, apperr.Validation("history id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()

	_, was := s.ids[id]
	if was {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}

	if err := s.docs.WriteJSON(favoritesKey, s.sortedLocked()); err != nil {
		// keep memory and disk consistent
		if was {
			s.ids[id] = struct{}{}
		} else {
			delete(s.ids, id)
		}
		return was, apperr.Persistence("save favorites", err)
	}
	return !was, nil
}

func (s *favoritesService) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoadedLocked()
	return s.sortedLocked()
}

func (s *favoritesService) sortedLocked() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
