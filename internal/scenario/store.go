package scenario

import (
	"sync"

	"github.com/abhisek/spincoach/internal/logger"
)

// Store loads a scenario at most once per process and memoizes the result,
// including a failed load.
type Store struct {
	path string
	log  *logger.Logger
	load func(string) (*Config, error)

	once sync.Once
	cfg  *Config
	err  error
}

// NewStore returns a Store for path. Nothing is read until Get.
func NewStore(path string, log *logger.Logger) *Store {
	return &Store{path: path, log: logger.OrNop(log), load: Load}
}

// Path returns the path the store reads from.
func (s *Store) Path() string { return s.path }

// Get returns the scenario, loading it on the first call.
func (s *Store) Get() (*Config, error) {
	s.once.Do(func() {
		s.cfg, s.err = s.load(s.path)
		if s.err != nil {
			s.log.Error("scenario load failed", "path", s.path, "error", s.err)
			return
		}
		s.log.Info("scenario loaded",
			"name", s.cfg.Info.Name,
			"version", s.cfg.Info.Version,
			"question_types", len(s.cfg.QuestionTypes),
		)
		for _, w := range s.cfg.Warnings {
			s.log.Warn("scenario data quality", "warning", w)
		}
	})
	return s.cfg, s.err
}
