// Package watcher watches directories for new files and enqueues
// conversion tasks according to the configured rules.
package watcher

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/convsuite/convsuite/internal/config"
	"github.com/convsuite/convsuite/internal/converter"
	"github.com/convsuite/convsuite/internal/db"
	"github.com/convsuite/convsuite/internal/util"
	"github.com/convsuite/convsuite/internal/worker"
)

// Watcher tails the configured roots recursively. A file whose
// extension matches a watch rule is hashed, deduplicated against the
// task history and enqueued.
type Watcher struct {
	cfg    *config.Config
	db     *gorm.DB
	queue  *worker.Queue
	w      *fsnotify.Watcher
	roots  []string
	rules  map[string]string
	mu     sync.Mutex
	paused bool
}

func NewRecursiveWatcher(cfg *config.Config, conn *gorm.DB, q *worker.Queue) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		cfg:   cfg,
		db:    conn,
		queue: q,
		w:     w,
		roots: cfg.WatchDirs,
		rules: cfg.WatchRules,
	}, nil
}

// Start registers the roots and processes events until ctx is done.
func (wr *Watcher) Start(ctx context.Context) error {
	if err := wr.registerAll(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-wr.w.Events:
			wr.handleEvent(ev)
		case err := <-wr.w.Errors:
			log.Printf("watcher error: %v", err)
		}
	}
}

func (wr *Watcher) Close() error { return wr.w.Close() }

func (wr *Watcher) Pause()       { wr.mu.Lock(); wr.paused = true; wr.mu.Unlock() }
func (wr *Watcher) Resume()      { wr.mu.Lock(); wr.paused = false; wr.mu.Unlock() }
func (wr *Watcher) Paused() bool { wr.mu.Lock(); defer wr.mu.Unlock(); return wr.paused }

func (wr *Watcher) registerAll() error {
	for _, root := range wr.roots {
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				_ = wr.w.Add(path)
			}
			return nil
		})
	}
	return nil
}

func (wr *Watcher) handleEvent(ev fsnotify.Event) {
	// New directories need to be registered before anything lands in
	// them.
	if ev.Op&fsnotify.Create != 0 {
		fi, err := os.Stat(ev.Name)
		if err == nil && fi.IsDir() {
			_ = filepath.WalkDir(ev.Name, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					_ = wr.w.Add(path)
				}
				return nil
			})
			return
		}
	}
	if wr.Paused() {
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(ev.Name), "."))
	format, ok := wr.rules[ext]
	if !ok {
		return
	}
	// Wait for the writer to finish before hashing.
	go func(path, format string) {
		time.Sleep(time.Duration(wr.cfg.StabilityDelaySec) * time.Second)
		if err := wr.enqueueFile(path, format); err != nil {
			log.Printf("watcher enqueue error: %v", err)
		}
	}(ev.Name, format)
}

// enqueueFile creates a pending task for path unless the same content
// was already converted to the same format.
func (wr *Watcher) enqueueFile(path, format string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	md5sum, err := util.MD5File(path, wr.cfg.MD5ChunkSize)
	if err != nil {
		return err
	}
	done, err := db.HasSucceeded(wr.db, path, md5sum, format)
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	opts, _ := json.Marshal(&converter.Options{
		OutputDir: wr.cfg.OutputDir,
		Quality:   wr.cfg.Quality,
	})
	task := &db.ConversionTask{
		PublicID:     uuid.NewString(),
		InputPath:    path,
		OutputFormat: format,
		Options:      string(opts),
		FileMD5:      md5sum,
	}
	if err := db.CreateTask(wr.db, task); err != nil {
		return err
	}
	if !wr.queue.Enqueue(task.ID) {
		log.Printf("watcher: queue full, dropping task for %s", path)
		return db.Fail(wr.db, task.ID, "conversion queue is full", 0)
	}
	return nil
}

// ScanAll walks every root and enqueues all files matching the rules.
func (wr *Watcher) ScanAll(ctx context.Context) error {
	for _, root := range wr.roots {
		filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			select {
			case <-ctx.Done():
				return filepath.SkipAll
			default:
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			format, ok := wr.rules[ext]
			if !ok {
				return nil
			}
			if err := wr.enqueueFile(path, format); err != nil {
				log.Printf("scan enqueue error: %v", err)
			}
			return nil
		})
	}
	return nil
}
