package core

import (
	"context"
	"errors"
)

// ErrStorageNotConfigured is returned by object storage operations when no
// bucket has been configured. Fatal and never retried.
var ErrStorageNotConfigured = errors.New("object storage is not configured")

// ErrUnsupportedFileType is returned by the loader for file types it cannot
// parse. Fatal for that document only.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ObjectClient defines interactions with S3 or any object storage.
// Abstract so AWS can be replaced with MinIO, GCP, etc. easily.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
	GetFile(ctx context.Context, key string) ([]byte, error)

	// DownloadToTemp fetches the object to a temporary local file and returns
	// its path. The caller owns the file and must remove it.
	DownloadToTemp(ctx context.Context, key string) (string, error)
}

// SearchHit is one similarity-search result from the vector index.
type SearchHit struct {
	ID       string  `json:"uuid"`
	Text     string  `json:"text"`
	Source   string  `json:"source"`
	Distance float32 `json:"distance"`
}

// VectorRecord is the record shape persisted per chunk.
type VectorRecord struct {
	Content string
	Source  string
	Vector  []float32
}

// VectorIndex abstracts the vector database. A collection holds records with
// a fixed vector dimensionality and cosine distance.
type VectorIndex interface {
	CollectionExists(ctx context.Context, name string) (bool, error)

	// EnsureCollection creates the collection with cosine distance if it does
	// not already exist. Safe under concurrent callers: losing a creation race
	// is success, not an error.
	EnsureCollection(ctx context.Context, name string, dimension int) error

	Insert(ctx context.Context, collection string, rec VectorRecord) (id string, err error)
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]SearchHit, error)
	Close() error
}
