package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/biizlabs/jobengine/internal/config"
	"github.com/biizlabs/jobengine/internal/dto"
	"github.com/biizlabs/jobengine/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}, &models.App{}))
	return db
}

func testMessage(id string) datatypes.JSON {
	msg := dto.UnifiedJobMessage{
		Execution: dto.ExecutionConfig{Type: config.ExecutionRestAPI, BaseURL: "https://api.example.com"},
		Metadata:  dto.JobMetadata{JobID: id, MessageGroupID: "g", CreatedAt: time.Now().UTC().Format(time.RFC3339Nano)},
	}
	raw, _ := json.Marshal(msg)
	return datatypes.JSON(raw)
}

func makeJob(status config.JobStatus, nextRetryAt *time.Time) *models.Job {
	id := uuid.NewString()
	return &models.Job{
		ID:            id,
		ExecutionType: string(config.ExecutionRestAPI),
		Status:        string(status),
		Message:       testMessage(id),
		MaxRetries:    10,
		NextRetryAt:   nextRetryAt,
	}
}

func timePtr(t time.Time) *time.Time { return &t }
