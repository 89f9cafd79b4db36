package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockNotifier records notification calls.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyRecipeCreated(ctx context.Context, userID, recipeName string) {
	m.Called(ctx, userID, recipeName)
}

func (m *MockNotifier) NotifyRecipeUpdated(ctx context.Context, userID, recipeName string) {
	m.Called(ctx, userID, recipeName)
}

func (m *MockNotifier) NotifyRecipeFavorited(ctx context.Context, userID, recipeName string) {
	m.Called(ctx, userID, recipeName)
}

func (m *MockNotifier) NotifyWelcome(ctx context.Context, userID, userName string) {
	m.Called(ctx, userID, userName)
}

func (m *MockNotifier) NotifyProfileUpdated(ctx context.Context, userID string) {
	m.Called(ctx, userID)
}
