package transport

import (
	"context"

	"github.com/alexkarev/imagevault/internal/auth"
	"github.com/alexkarev/imagevault/internal/model"
)

// MOCK IMAGE SERVICE

type mockImageService struct {
	ingestFn    func(ctx context.Context, caller model.CallerIdentity, data []byte, filename string) (*model.Asset, error)
	transformFn func(ctx context.Context, caller model.CallerIdentity, id string, spec model.TransformSpec) (*model.TransformResult, error)
	listFn      func(ctx context.Context, caller model.CallerIdentity, req *model.ListRequest) (*model.AssetPage, error)
	getFn       func(ctx context.Context, caller model.CallerIdentity, id string) (*model.Asset, error)
}

func (m *mockImageService) Ingest(ctx context.Context, caller model.CallerIdentity, data []byte, filename string) (*model.Asset, error) {
	return m.ingestFn(ctx, caller, data, filename)
}

func (m *mockImageService) TransformAsset(ctx context.Context, caller model.CallerIdentity, id string, spec model.TransformSpec) (*model.TransformResult, error) {
	return m.transformFn(ctx, caller, id, spec)
}

func (m *mockImageService) List(ctx context.Context, caller model.CallerIdentity, req *model.ListRequest) (*model.AssetPage, error) {
	return m.listFn(ctx, caller, req)
}

func (m *mockImageService) Get(ctx context.Context, caller model.CallerIdentity, id string) (*model.Asset, error) {
	return m.getFn(ctx, caller, id)
}

// MOCK AUTH SERVICE

type mockAuthService struct {
	registerFn func(ctx context.Context, username, password string) (string, *auth.User, error)
	loginFn    func(ctx context.Context, username, password string) (string, *auth.User, error)
}

func (m *mockAuthService) Register(ctx context.Context, username, password string) (string, *auth.User, error) {
	return m.registerFn(ctx, username, password)
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (string, *auth.User, error) {
	return m.loginFn(ctx, username, password)
}
