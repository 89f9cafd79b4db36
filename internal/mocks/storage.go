package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockImageUploader is a mock implementation of the recipe image store
type MockImageUploader struct {
	mock.Mock
}

func (m *MockImageUploader) UploadRecipeImage(ctx context.Context, userID, fileExt string, r io.Reader, size int64) (string, string, error) {
	args := m.Called(ctx, userID, fileExt, r, size)
	return args.String(0), args.String(1), args.Error(2)
}
