package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-support-agent/internal/repo"
)

// SQLBucket stores objects in the blobs table.
type SQLBucket struct {
	DB *gorm.DB
}

// NewSQLBucket returns a bucket over db. The blobs table must be migrated.
func NewSQLBucket(db *gorm.DB) *SQLBucket { return &SQLBucket{DB: db} }

// Get implements Bucket.
func (b *SQLBucket) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := repo.GetBlob(ctx, b.DB, key)
	if repo.IsNotFound(err) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

// Put implements Bucket.
func (b *SQLBucket) Put(ctx context.Context, key string, data []byte) error {
	return repo.PutBlob(ctx, b.DB, key, data)
}
