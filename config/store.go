package config

import "sync"

// Store holds the live SunSpec configuration snapshot.
//
// The snapshot is replaced wholesale by Set or Update, readers always get a consistent copy from Get and must treat it as
// read-only.
type Store struct {
	mu       sync.RWMutex
	sunspec  SunSpec
	observer func(manufacturer, model string)
}

func NewStore(sunspec SunSpec) *Store {
	return &Store{sunspec: sunspec}
}

func (s *Store) Get() SunSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sunspec
}

// Set replaces the snapshot without notifying the observer.
func (s *Store) Set(sunspec SunSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sunspec = sunspec
}

// Observe registers a function that Update calls with the new manufacturer and model. There is at most one observer.
func (s *Store) Observe(observer func(manufacturer, model string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observer = observer
}

// Update replaces the snapshot and then notifies the observer, if there is one.
func (s *Store) Update(sunspec SunSpec) {
	s.mu.Lock()
	s.sunspec = sunspec
	observer := s.observer
	s.mu.Unlock()

	if observer != nil {
		observer(sunspec.Manufacturer, sunspec.Model)
	}
}
