package service

import (
	"context"

	"github.com/alexkarev/imagevault/internal/model"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

// MOCK REPOSITORY

type mockRepo struct {
	createFn func(ctx context.Context, a *model.Asset) error
	getFn    func(ctx context.Context, id string) (*model.Asset, error)
	listFn   func(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]model.Asset, error)
	countFn  func(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

func (m *mockRepo) Create(ctx context.Context, a *model.Asset) error {
	return m.createFn(ctx, a)
}

func (m *mockRepo) Get(ctx context.Context, id string) (*model.Asset, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]model.Asset, error) {
	return m.listFn(ctx, ownerID, offset, limit)
}

func (m *mockRepo) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return m.countFn(ctx, ownerID)
}

// MOCK STORAGE

type mockStorage struct {
	uploadFn func(ctx context.Context, namespace string, data []byte) (model.BlobInfo, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Upload(ctx context.Context, namespace string, data []byte) (model.BlobInfo, error) {
	return m.uploadFn(ctx, namespace, data)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

// MOCK FETCHER

type mockFetcher struct {
	fetchFn func(ctx context.Context, url string) ([]byte, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return m.fetchFn(ctx, url)
}

// MOCK PUBLISHER

type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}
