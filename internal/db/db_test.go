package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := Open(filepath.Join(t.TempDir(), "tasks.db"))
	require.NoError(t, err)
	return conn
}

func TestTaskLifecycle(t *testing.T) {
	conn := openTestDB(t)

	task := &ConversionTask{
		PublicID:     "abc-123",
		InputPath:    "/in/photo.png",
		OutputFormat: "jpg",
	}
	require.NoError(t, CreateTask(conn, task))
	assert.Equal(t, StatusPending, task.Status)
	require.NotZero(t, task.ID)

	require.NoError(t, SetProcessing(conn, task.ID, "Image Converter"))
	got, err := GetTask(conn, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
	assert.Equal(t, "Image Converter", got.ConverterName)

	require.NoError(t, Complete(conn, task.ID, "/out/photo.jpg", 1234))
	got, err = GetTask(conn, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)
	assert.Equal(t, "/out/photo.jpg", got.OutputPath)
	assert.Equal(t, int64(1234), got.DurationMs)
}

func TestFailClearsNothingElse(t *testing.T) {
	conn := openTestDB(t)
	task := &ConversionTask{PublicID: "x", InputPath: "/in/a.wav", OutputFormat: "mp3"}
	require.NoError(t, CreateTask(conn, task))

	require.NoError(t, Fail(conn, task.ID, "ffmpeg: boom", 10))
	got, err := GetTask(conn, task.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "ffmpeg: boom", got.Error)
	assert.Equal(t, "/in/a.wav", got.InputPath)
}

func TestGetTaskByPublicID(t *testing.T) {
	conn := openTestDB(t)
	task := &ConversionTask{PublicID: "pub-1", InputPath: "/in/a.md", OutputFormat: "html"}
	require.NoError(t, CreateTask(conn, task))

	got, err := GetTaskByPublicID(conn, "pub-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, task.ID, got.ID)

	got, err = GetTaskByPublicID(conn, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListTasksFilterAndPaging(t *testing.T) {
	conn := openTestDB(t)
	for i := 0; i < 5; i++ {
		task := &ConversionTask{PublicID: string(rune('a' + i)), InputPath: "/in/f", OutputFormat: "jpg"}
		require.NoError(t, CreateTask(conn, task))
		if i < 2 {
			require.NoError(t, Complete(conn, task.ID, "/out", 1))
		}
	}

	all, total, err := ListTasks(conn, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, all, 5)

	done, total, err := ListTasks(conn, StatusSuccess, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, done, 2)

	page, total, err := ListTasks(conn, "", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 2)
}

func TestHasSucceededDedupe(t *testing.T) {
	conn := openTestDB(t)
	task := &ConversionTask{
		PublicID:     "t1",
		InputPath:    "/watch/song.wav",
		OutputFormat: "mp3",
		FileMD5:      "d41d8cd98f00b204e9800998ecf8427e",
	}
	require.NoError(t, CreateTask(conn, task))

	ok, err := HasSucceeded(conn, "/watch/song.wav", task.FileMD5, "mp3")
	require.NoError(t, err)
	assert.False(t, ok, "pending task must not count")

	require.NoError(t, Complete(conn, task.ID, "/watch/song.mp3", 1))
	ok, err = HasSucceeded(conn, "/watch/song.wav", task.FileMD5, "mp3")
	require.NoError(t, err)
	assert.True(t, ok)

	// A changed file hashes differently and converts again.
	ok, err = HasSucceeded(conn, "/watch/song.wav", "otherhash", "mp3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetStats(t *testing.T) {
	conn := openTestDB(t)
	for i, status := range []string{StatusSuccess, StatusSuccess, StatusFailed, StatusPending} {
		task := &ConversionTask{PublicID: string(rune('a' + i)), InputPath: "/in", OutputFormat: "jpg"}
		require.NoError(t, CreateTask(conn, task))
		switch status {
		case StatusSuccess:
			require.NoError(t, Complete(conn, task.ID, "/out", 1))
		case StatusFailed:
			require.NoError(t, Fail(conn, task.ID, "boom", 1))
		}
	}

	stats, err := GetStats(conn)
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Total)
	assert.Equal(t, int64(2), stats.Success)
	assert.Equal(t, int64(1), stats.Failed)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Equal(t, int64(0), stats.Processing)
}
