// Package repo implements the SQL persistence layer backed by GORM.
// This file stores keyed blobs, the SQL backing of the chat history bucket.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-support-agent/internal/domain"
)

// GetBlob returns the data stored under key, or ErrNotFound.
func GetBlob(ctx context.Context, db *gorm.DB, key string) ([]byte, error) {
	var b domain.Blob
	err := db.WithContext(ctx).Where("key = ?", key).First(&b).Error
	if err != nil {
		return nil, err
	}
	return b.Data, nil
}

// PutBlob creates or replaces the data stored under key.
func PutBlob(ctx context.Context, db *gorm.DB, key string, data []byte) error {
	b := domain.Blob{Key: key, Data: data, UpdatedAt: time.Now().UTC()}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&b).Error
}

// IsNotFound reports whether err means the record is missing.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
