// Package worker runs queued conversion tasks on a fixed pool of
// goroutines.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/convsuite/convsuite/internal/config"
	"github.com/convsuite/convsuite/internal/converter"
	"github.com/convsuite/convsuite/internal/db"
	"github.com/convsuite/convsuite/internal/livelog"
)

// Pool dispatches queued tasks to MaxWorkers goroutines.
type Pool struct {
	cfg      *config.Config
	db       *gorm.DB
	queue    *Queue
	registry *converter.Registry
	logs     *livelog.Manager
	wg       sync.WaitGroup
}

func NewPool(cfg *config.Config, conn *gorm.DB, q *Queue, reg *converter.Registry, logs *livelog.Manager) *Pool {
	return &Pool{cfg: cfg, db: conn, queue: q, registry: reg, logs: logs}
}

// Run starts the worker goroutines. They exit when ctx is cancelled.
func (p *Pool) Run(ctx context.Context) {
	for i := 0; i < p.cfg.MaxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-p.queue.Chan():
			p.handle(ctx, id)
		}
	}
}

func (p *Pool) handle(ctx context.Context, id uint) {
	defer p.queue.Dequeued(id)
	task, err := db.GetTask(p.db, id)
	if err != nil {
		log.Printf("worker: load task %d: %v", id, err)
		return
	}
	if task.Status != db.StatusPending {
		return
	}

	opts := &converter.Options{}
	if task.Options != "" {
		if err := json.Unmarshal([]byte(task.Options), opts); err != nil {
			log.Printf("worker: task %s has bad options, using defaults: %v", task.PublicID, err)
			opts = &converter.Options{}
		}
	}
	if opts.Quality == 0 {
		opts.Quality = p.cfg.Quality
	}
	if opts.OutputDir == "" {
		opts.OutputDir = p.cfg.OutputDir
	}

	inFormat := converter.FileFormat(task.InputPath)
	conv := p.registry.FindConverter(inFormat, task.OutputFormat)
	if conv == nil {
		msg := fmt.Sprintf("no converter for %s -> %s", inFormat, task.OutputFormat)
		if err := db.Fail(p.db, task.ID, msg, 0); err != nil {
			log.Printf("worker: mark failed: %v", err)
		}
		return
	}

	if err := db.SetProcessing(p.db, task.ID, conv.Name()); err != nil {
		log.Printf("worker: set processing: %v", err)
	}
	p.logs.Start(task.PublicID)
	p.logs.Append(task.PublicID, fmt.Sprintf("converting %s to %s with %s",
		filepath.Base(task.InputPath), task.OutputFormat, conv.Name()))
	opts.OnProgress = func(progress float64, message string) {
		p.logs.Append(task.PublicID, fmt.Sprintf("[%3.0f%%] %s", progress*100, message))
	}

	start := time.Now()
	result := conv.Convert(ctx, task.InputPath, task.OutputFormat, opts)
	elapsed := time.Since(start).Milliseconds()
	if result.Success {
		p.logs.Append(task.PublicID, fmt.Sprintf("done: %s", result.OutputPath))
		if err := db.Complete(p.db, task.ID, result.OutputPath, elapsed); err != nil {
			log.Printf("worker: record success: %v", err)
		}
	} else {
		p.logs.Append(task.PublicID, fmt.Sprintf("failed: %s", result.Error))
		log.Printf("convert failed for %s: %s", task.InputPath, result.Error)
		if err := db.Fail(p.db, task.ID, result.Error, elapsed); err != nil {
			log.Printf("worker: record failure: %v", err)
		}
	}
	p.logs.End(task.PublicID)
}

// Drain waits for in-flight tasks to finish or the context to expire.
func (p *Pool) Drain(ctx context.Context) {
	p.queue.StopAccepting()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
}
