package jobs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/studentworks/freelancer-service/internal/media"
)

// PictureLister exposes the set of picture filenames still referenced by the
// directory store.
type PictureLister interface {
	ReferencedPictures() (map[string]struct{}, error)
}

// Sweeper removes uploaded files no user row references anymore. Deletes that
// fail after a row is removed leave such files behind; the sweep reclaims
// them. Files younger than the grace period are skipped so an upload that is
// part of an in-flight registration is never touched.
type Sweeper struct {
	repo  PictureLister
	store *media.Store
	log   *logrus.Logger
	grace time.Duration
}

// NewSweeper creates a sweeper with a one hour grace period.
func NewSweeper(repo PictureLister, store *media.Store, log *logrus.Logger) *Sweeper {
	return &Sweeper{repo: repo, store: store, log: log, grace: time.Hour}
}

// Run executes one sweep. Suitable as a cron callback; per-file failures are
// logged and do not stop the pass.
func (s *Sweeper) Run() {
	referenced, err := s.repo.ReferencedPictures()
	if err != nil {
		s.log.Errorf("Orphan sweep aborted: %v", err)
		return
	}

	entries, err := os.ReadDir(s.store.Dir())
	if err != nil {
		s.log.Errorf("Orphan sweep aborted: %v", err)
		return
	}

	cutoff := time.Now().Add(-s.grace)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := filepath.Base(entry.Name())
		if name == media.DefaultPicture {
			continue
		}
		if _, ok := referenced[name]; ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.log.Warnf("Orphan sweep: stat %s: %v", name, err)
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		s.store.Remove(name)
		removed++
	}

	if removed > 0 {
		s.log.Infof("Orphan sweep removed %d file(s)", removed)
	}
}
