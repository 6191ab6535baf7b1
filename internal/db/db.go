// Package db persists conversion tasks and their history in SQLite.
package db

import (
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Task statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSuccess    = "success"
	StatusFailed     = "failed"
)

// ConversionTask is one requested conversion and its outcome.
type ConversionTask struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	PublicID      string `gorm:"uniqueIndex;size:36" json:"id"`
	InputPath     string `gorm:"index" json:"input_path"`
	OutputFormat  string `json:"output_format"`
	OutputPath    string `json:"output_path,omitempty"`
	ConverterName string `json:"converter_name,omitempty"`
	Status        string `gorm:"index" json:"status"`
	Error         string `json:"error,omitempty"`
	// Options is the JSON-serialized conversion options.
	Options    string    `json:"-"`
	FileMD5    string    `gorm:"index" json:"file_md5,omitempty"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Stats summarizes the task table.
type Stats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Success    int64 `json:"success"`
	Failed     int64 `json:"failed"`
}

// Open opens (creating if necessary) the task database.
func Open(path string) (*gorm.DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := conn.AutoMigrate(&ConversionTask{}); err != nil {
		return nil, err
	}
	return conn, nil
}

// CreateTask inserts a new pending task.
func CreateTask(conn *gorm.DB, task *ConversionTask) error {
	if task.Status == "" {
		task.Status = StatusPending
	}
	return conn.Create(task).Error
}

// GetTask loads a task by primary key.
func GetTask(conn *gorm.DB, id uint) (*ConversionTask, error) {
	var task ConversionTask
	if err := conn.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTaskByPublicID loads a task by its public identifier. Returns
// (nil, nil) when absent.
func GetTaskByPublicID(conn *gorm.DB, publicID string) (*ConversionTask, error) {
	var task ConversionTask
	err := conn.Where("public_id = ?", publicID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// SetProcessing marks a task as picked up by a worker.
func SetProcessing(conn *gorm.DB, id uint, converterName string) error {
	return conn.Model(&ConversionTask{}).Where("id = ?", id).Updates(map[string]any{
		"status":         StatusProcessing,
		"converter_name": converterName,
	}).Error
}

// Complete records a successful conversion.
func Complete(conn *gorm.DB, id uint, outputPath string, durationMs int64) error {
	return conn.Model(&ConversionTask{}).Where("id = ?", id).Updates(map[string]any{
		"status":      StatusSuccess,
		"output_path": outputPath,
		"error":       "",
		"duration_ms": durationMs,
	}).Error
}

// Fail records a failed conversion.
func Fail(conn *gorm.DB, id uint, message string, durationMs int64) error {
	return conn.Model(&ConversionTask{}).Where("id = ?", id).Updates(map[string]any{
		"status":      StatusFailed,
		"error":       message,
		"duration_ms": durationMs,
	}).Error
}

// ListTasks returns tasks newest first, optionally filtered by status.
func ListTasks(conn *gorm.DB, status string, limit, offset int) ([]ConversionTask, int64, error) {
	q := conn.Model(&ConversionTask{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	var tasks []ConversionTask
	err := q.Order("updated_at desc").Limit(limit).Offset(offset).Find(&tasks).Error
	return tasks, count, err
}

// HasSucceeded reports whether a conversion of the same content to the
// same format already succeeded; the watcher uses it to skip
// unmodified files.
func HasSucceeded(conn *gorm.DB, inputPath, md5, outputFormat string) (bool, error) {
	var count int64
	err := conn.Model(&ConversionTask{}).
		Where("input_path = ? AND file_md5 = ? AND output_format = ? AND status = ?",
			inputPath, md5, outputFormat, StatusSuccess).
		Count(&count).Error
	return count > 0, err
}

// GetStats aggregates task counts by status.
func GetStats(conn *gorm.DB) (*Stats, error) {
	var stats Stats
	counts := []struct {
		status string
		dest   *int64
	}{
		{StatusPending, &stats.Pending},
		{StatusProcessing, &stats.Processing},
		{StatusSuccess, &stats.Success},
		{StatusFailed, &stats.Failed},
	}
	if err := conn.Model(&ConversionTask{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		if err := conn.Model(&ConversionTask{}).Where("status = ?", c.status).Count(c.dest).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}
