package main

import (
	"context"

	"github.com/alexkarev/imagevault/internal/model"
)

type ImageAPIService interface {
	Ingest(ctx context.Context, caller model.CallerIdentity, data []byte, filename string) (*model.Asset, error)
	TransformAsset(ctx context.Context, caller model.CallerIdentity, id string, spec model.TransformSpec) (*model.TransformResult, error)
	List(ctx context.Context, caller model.CallerIdentity, req *model.ListRequest) (*model.AssetPage, error)
	Get(ctx context.Context, caller model.CallerIdentity, id string) (*model.Asset, error)
}
