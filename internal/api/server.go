// Package api exposes the conversion service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/convsuite/convsuite/internal/config"
	"github.com/convsuite/convsuite/internal/converter"
	"github.com/convsuite/convsuite/internal/db"
	"github.com/convsuite/convsuite/internal/deps"
	"github.com/convsuite/convsuite/internal/livelog"
	"github.com/convsuite/convsuite/internal/watcher"
	"github.com/convsuite/convsuite/internal/worker"
)

type Server struct {
	Router   *gin.Engine
	cfg      *config.Config
	db       *gorm.DB
	queue    *worker.Queue
	registry *converter.Registry
	locator  *deps.Locator
	logs     *livelog.Manager
	watch    *watcher.Watcher
}

func NewServer(cfg *config.Config, conn *gorm.DB, q *worker.Queue, reg *converter.Registry,
	loc *deps.Locator, logs *livelog.Manager, w *watcher.Watcher) *Server {
	g := gin.Default()
	s := &Server{
		Router:   g,
		cfg:      cfg,
		db:       conn,
		queue:    q,
		registry: reg,
		locator:  loc,
		logs:     logs,
		watch:    w,
	}

	api := g.Group("/api")
	api.POST("/convert", s.createTask)
	api.GET("/tasks", s.listTasks)
	api.GET("/tasks/:id", s.getTask)
	api.GET("/tasks/:id/log", s.getTaskLog)
	api.GET("/formats", s.listFormats)
	api.GET("/formats/:ext", s.formatsFor)
	api.GET("/dependencies", s.getDependencies)
	api.GET("/stats", s.getStats)
	api.POST("/scan", s.scanNow)
	api.POST("/watcher/pause", s.pauseWatcher)
	api.POST("/watcher/resume", s.resumeWatcher)

	return s
}

type convertRequest struct {
	InputPath    string             `json:"input_path" binding:"required"`
	OutputFormat string             `json:"output_format" binding:"required"`
	Options      *converter.Options `json:"options"`
}

func (s *Server) createTask(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := os.Stat(req.InputPath); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input file not found"})
		return
	}
	inFormat := converter.FileFormat(req.InputPath)
	outFormat := converter.NormalizeFormat(req.OutputFormat)
	if s.registry.FindConverter(inFormat, outFormat) == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unsupported conversion: " + inFormat + " -> " + outFormat,
		})
		return
	}

	opts := req.Options
	if opts == nil {
		opts = &converter.Options{}
	}
	encoded, err := json.Marshal(opts)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task := &db.ConversionTask{
		PublicID:     uuid.NewString(),
		InputPath:    req.InputPath,
		OutputFormat: outFormat,
		Options:      string(encoded),
	}
	if err := db.CreateTask(s.db, task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !s.queue.Enqueue(task.ID) {
		if err := db.Fail(s.db, task.ID, "conversion queue is full", 0); err != nil {
			log.Printf("api: mark dropped task failed: %v", err)
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "conversion queue is full"})
		return
	}
	c.JSON(http.StatusAccepted, task)
}

func (s *Server) listTasks(c *gin.Context) {
	limit := parseIntDefault(c.Query("limit"), 50)
	offset := parseIntDefault(c.Query("offset"), 0)
	tasks, total, err := db.ListTasks(s.db, c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks, "total": total})
}

func (s *Server) getTask(c *gin.Context) {
	task, err := db.GetTaskByPublicID(s.db, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) getTaskLog(c *gin.Context) {
	if entry, ok := s.logs.Get(c.Param("id")); ok {
		c.JSON(http.StatusOK, entry)
		return
	}
	// Finished tasks fall back to the persisted record.
	task, err := db.GetTaskByPublicID(s.db, c.Param("id"))
	if err != nil || task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task_id": task.PublicID, "status": task.Status, "error": task.Error})
}

func (s *Server) listFormats(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.Conversions())
}

func (s *Server) formatsFor(c *gin.Context) {
	ext := converter.NormalizeFormat(c.Param("ext"))
	outputs := s.registry.OutputFormatsFor(ext)
	c.JSON(http.StatusOK, gin.H{"input": ext, "outputs": outputs})
}

func (s *Server) getDependencies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tools":      s.locator.CheckAll(),
		"converters": s.registry.ValidateAll(),
	})
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := db.GetStats(s.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	state := "running"
	if s.watch == nil {
		state = "disabled"
	} else if s.watch.Paused() {
		state = "paused"
	}
	c.JSON(http.StatusOK, gin.H{
		"tasks":         stats,
		"queue_len":     s.queue.Len(),
		"watcher_state": state,
		"active_logs":   len(s.logs.Active()),
	})
}

func (s *Server) scanNow(c *gin.Context) {
	if s.watch == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "watcher disabled"})
		return
	}
	go s.watch.ScanAll(context.Background())
	c.JSON(http.StatusOK, gin.H{"started": true})
}

func (s *Server) pauseWatcher(c *gin.Context) {
	if s.watch == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "watcher disabled"})
		return
	}
	s.watch.Pause()
	c.JSON(http.StatusOK, gin.H{"paused": true})
}

func (s *Server) resumeWatcher(c *gin.Context) {
	if s.watch == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "watcher disabled"})
		return
	}
	s.watch.Resume()
	c.JSON(http.StatusOK, gin.H{"paused": false})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
