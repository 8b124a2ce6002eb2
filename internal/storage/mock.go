package storage

import (
	"context"
	"io"
	"sync"
)

// MockUploader records uploads for assertions in tests.
type MockUploader struct {
	mu sync.Mutex

	UploadFunc  func(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	DeleteFunc  func(ctx context.Context, key string) error
	UploadCalls []struct {
		Key         string
		ContentType string
	}
	DeleteCalls []string
}

var _ Uploader = (*MockUploader)(nil)

// NewMock creates a new mock instance.
func NewMock() *MockUploader {
	return &MockUploader{}
}

func (m *MockUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	m.mu.Lock()
	m.UploadCalls = append(m.UploadCalls, struct {
		Key         string
		ContentType string
	}{key, contentType})
	m.mu.Unlock()
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, key, contentType, reader)
	}
	return &UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (m *MockUploader) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, key)
	m.mu.Unlock()
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

func (m *MockUploader) PublicURL(key string) string {
	return "https://cdn.test/" + key
}
