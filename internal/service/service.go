// Package service provides business-logic for the app: the ingestion,
// transformation and listing pipelines over the blob store and the asset
// repository.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexkarev/imagevault/internal/imageproc"
	"github.com/alexkarev/imagevault/internal/model"
	"github.com/alexkarev/imagevault/internal/mwlogger"
	"github.com/alexkarev/imagevault/internal/repository"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
)

type ImageService struct {
	repo      repository.AssetRepo
	storage   BlobStorage
	fetcher   SourceFetcher
	publisher TaskPublisher

	// transformSlots caps concurrent decode/transform/encode runs so a
	// burst of large images cannot exhaust memory.
	transformSlots chan struct{}
}

func NewImageService(repo repository.AssetRepo, strg BlobStorage, fetcher SourceFetcher, pub TaskPublisher, transformWorkers int) *ImageService {
	if transformWorkers < 1 {
		transformWorkers = 4
	}
	return &ImageService{
		repo:           repo,
		storage:        strg,
		fetcher:        fetcher,
		publisher:      pub,
		transformSlots: make(chan struct{}, transformWorkers),
	}
}

// BlobStorage - контракт для работы с хранилищем
type BlobStorage interface {
	Upload(ctx context.Context, namespace string, data []byte) (model.BlobInfo, error)
	Delete(ctx context.Context, key string) error
}

// SourceFetcher - контракт для скачивания исходника по URL
type SourceFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// TaskPublisher - контракт для работы с очередью
type TaskPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// Стратегия ретрая отправки в очередь - можно потом вынести значения в конфиг/env
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

// Ingest stores uploaded bytes in the blob store and then records exactly
// one asset. The metadata row is never written before the upload succeeds,
// so the repository never references a non-existent blob. A metadata
// failure after the upload leaves an orphaned blob: it is logged and
// published for reconciliation, never retried inline.
func (c ImageService) Ingest(ctx context.Context, caller model.CallerIdentity, data []byte, filename string) (*model.Asset, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if caller.OwnerID == uuid.Nil {
		return nil, model.ErrAuthRequired
	}
	if len(data) == 0 {
		return nil, model.ErrNoFile
	}

	ns := ownerNamespace(caller.OwnerID)
	blob, err := c.storage.Upload(ctx, ns, data)
	if err != nil {
		if errors.Is(err, model.ErrDecodeImage) || errors.Is(err, model.ErrUnsupportedFormat) {
			return nil, err
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to upload file %q to blob storage", filename))
		return nil, model.ErrStorageUpload
	}

	asset := &model.Asset{
		OwnerID:    caller.OwnerID,
		StorageKey: blob.Key,
		URL:        blob.URL,
		Format:     blob.Format,
		Width:      blob.Width,
		Height:     blob.Height,
	}

	if err := c.repo.Create(ctx, asset); err != nil {
		c.reportOrphan(ctx, ns, blob, caller.OwnerID, "ingest metadata write failed")
		logger.Error().Err(err).Msg("Failed to create asset in DB after successful upload")
		return nil, model.ErrPersistence
	}

	return asset, nil
}

// TransformAsset loads an owned asset, fetches its stored bytes, runs the
// engine and persists the derived image as a new asset. Foreign asset ids
// are indistinguishable from absent ones.
func (c ImageService) TransformAsset(ctx context.Context, caller model.CallerIdentity, id string, spec model.TransformSpec) (*model.TransformResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if caller.OwnerID == uuid.Nil {
		return nil, model.ErrAuthRequired
	}
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	asset, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrAssetNotFound) {
			return nil, model.ErrAssetNotFound
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch asset %q from DB", id))
		return nil, model.ErrCommon500
	}
	if asset.OwnerID != caller.OwnerID {
		return nil, model.ErrAssetNotFound
	}

	src, err := c.fetcher.Fetch(ctx, asset.URL)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch source bytes of asset %q", id))
		return nil, model.ErrFetchSource
	}

	output, meta, err := c.runTransform(ctx, src, spec)
	if err != nil {
		return nil, err
	}

	ns := ownerNamespace(asset.OwnerID)
	blob, err := c.storage.Upload(ctx, ns, output)
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to upload transform result of asset %q", id))
		return nil, model.ErrStorageUpload
	}

	derived := &model.Asset{
		OwnerID:    asset.OwnerID,
		StorageKey: blob.Key,
		URL:        blob.URL,
		Format:     blob.Format,
		Width:      blob.Width,
		Height:     blob.Height,
	}

	if err := c.repo.Create(ctx, derived); err != nil {
		c.reportOrphan(ctx, ns, blob, asset.OwnerID, "transform metadata write failed")
		logger.Error().Err(err).Msg("Failed to create derived asset in DB after successful upload")
		return nil, model.ErrPersistence
	}

	return &model.TransformResult{
		AssetID:    derived.ID,
		URL:        blob.URL,
		ResultMeta: meta,
	}, nil
}

// runTransform executes the pure engine under the concurrency cap. Waiting
// for a slot honors cancellation; once started, local pixel work runs to
// completion rather than being interrupted mid-buffer.
func (c ImageService) runTransform(ctx context.Context, src []byte, spec model.TransformSpec) ([]byte, model.ResultMeta, error) {
	select {
	case c.transformSlots <- struct{}{}:
		defer func() { <-c.transformSlots }()
	case <-ctx.Done():
		return nil, model.ResultMeta{}, ctx.Err()
	}

	return imageproc.Transform(src, spec)
}

// List returns one pagination window of the caller's assets, newest first.
func (c ImageService) List(ctx context.Context, caller model.CallerIdentity, req *model.ListRequest) (*model.AssetPage, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if caller.OwnerID == uuid.Nil {
		return nil, model.ErrAuthRequired
	}
	if req.Page < 1 || req.Limit < 1 {
		return nil, model.ErrInvalidPage
	}

	offset := (req.Page - 1) * req.Limit
	items, err := c.repo.ListByOwner(ctx, caller.OwnerID, offset, req.Limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch asset list from DB")
		return nil, model.ErrCommon500
	}

	total, err := c.repo.CountByOwner(ctx, caller.OwnerID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to count assets in DB")
		return nil, model.ErrCommon500
	}

	return &model.AssetPage{
		Items:       items,
		CurrentPage: req.Page,
		TotalItems:  total,
		Limit:       req.Limit,
	}, nil
}

// Get returns one owned asset by id.
func (c ImageService) Get(ctx context.Context, caller model.CallerIdentity, id string) (*model.Asset, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if caller.OwnerID == uuid.Nil {
		return nil, model.ErrAuthRequired
	}
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	asset, err := c.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrAssetNotFound) {
			return nil, model.ErrAssetNotFound
		}
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch asset %q from DB", id))
		return nil, model.ErrCommon500
	}
	if asset.OwnerID != caller.OwnerID {
		return nil, model.ErrAssetNotFound
	}

	return asset, nil
}

// reportOrphan logs an orphaned blob with enough detail for manual
// reconciliation and emits an event for the automated reconciler.
func (c ImageService) reportOrphan(ctx context.Context, namespace string, blob model.BlobInfo, ownerID uuid.UUID, reason string) {
	logger := mwlogger.LoggerFromContext(ctx)

	logger.Error().
		Str("namespace", namespace).
		Str("key", blob.Key).
		Str("owner_id", ownerID.String()).
		Msg("Orphaned blob: " + reason)

	event := model.OrphanEvent{
		Namespace: namespace,
		Key:       blob.Key,
		OwnerID:   ownerID.String(),
		Reason:    reason,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to marshal orphan event")
		return
	}

	if err := c.publisher.SendWithRetry(ctx, retryStrategy, []byte(blob.Key), payload); err != nil {
		logger.Error().Err(err).Msg("Failed to publish orphan event to queue")
	}
}

func ownerNamespace(ownerID uuid.UUID) string {
	return "user_" + ownerID.String()
}
