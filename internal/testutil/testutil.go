// Package testutil holds fixtures shared by the package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/m7modfayez/sakr-sports/pkg/database"
	"github.com/m7modfayez/sakr-sports/pkg/platform"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with the catalog schema
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// ImageStore records removal requests instead of calling object storage
type ImageStore struct {
	Bucket string
	Err    error

	mu      sync.Mutex
	removed [][]string
}

// NewImageStore returns a fake store for the product-images bucket
func NewImageStore() *ImageStore {
	return &ImageStore{Bucket: "product-images"}
}

func (s *ImageStore) PathFromURL(rawURL string) (string, error) {
	return platform.ObjectPathFromURL(rawURL, s.Bucket)
}

func (s *ImageStore) Remove(_ context.Context, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = append(s.removed, append([]string(nil), paths...))
	return s.Err
}

// Removed returns every batch of paths passed to Remove
func (s *ImageStore) Removed() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.removed...)
}

// ImageURL builds a public URL for an object in the product-images bucket
func ImageURL(name string) string {
	return "https://demo.supabase.co/storage/v1/object/public/product-images/products/" + name
}
