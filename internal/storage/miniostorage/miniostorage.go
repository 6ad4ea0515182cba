// Package miniostorage provides the blob-store client backed by MinIO (or
// any S3-compatible provider).
package miniostorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"strings"

	"github.com/alexkarev/imagevault/internal/model"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/config"
)

type MinioBlobStorage struct {
	bucket     string
	publicBase string
	client     *minio.Client
}

func NewMinioClient(cfg *config.Config) (*MinioBlobStorage, error) {
	bucket := cfg.GetString("BUCKET_NAME")

	if bucket == "" {
		bucket = "default"
		log.Printf("Bucket name is empty. Using default value %q...", bucket)
	}

	user := cfg.GetString("MINIO_USER")
	pass := cfg.GetString("MINIO_PASS")
	addr := cfg.GetString("MINIO_CONTAINER_NAME")
	publicBase := cfg.GetString("MINIO_PUBLIC_BASE")
	if publicBase == "" {
		publicBase = "http://" + addr + ":9000/" + bucket
	}

	strg, err := minio.New(addr+":9000", &minio.Options{
		Creds:  credentials.NewStaticV4(user, pass, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	if err := ensureBucket(context.Background(), strg, bucket); err != nil {
		log.Println("Failed to create bucket in MinIO:", err)
		return nil, err
	}

	return &MinioBlobStorage{
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		client:     strg,
	}, nil
}

// Upload probes data for a supported image encoding, stores it under
// <namespace>/<uuid>.<ext> and returns the stored key, retrieval URL and
// the probed format/dimensions. The returned info is the only trusted
// source for asset metadata - it always describes the stored bytes.
func (s *MinioBlobStorage) Upload(ctx context.Context, namespace string, data []byte) (model.BlobInfo, error) {
	if len(data) == 0 {
		return model.BlobInfo{}, errors.New("empty payload passed to storage.Upload")
	}

	cfg, format, err := probeImage(data)
	if err != nil {
		return model.BlobInfo{}, err
	}

	cType := model.GetCType[format]
	key := namespace + "/" + uuid.New().String() + model.GetImageFileExt[cType]

	if _, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: cType,
	}); err != nil {
		return model.BlobInfo{}, err
	}

	return model.BlobInfo{
		Key:    key,
		URL:    s.publicBase + "/" + key,
		Format: model.FormatName[format],
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func (s *MinioBlobStorage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

func probeImage(data []byte) (image.Config, imaging.Format, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, -1, fmt.Errorf("%w: %v", model.ErrDecodeImage, err)
	}

	format, err := imaging.FormatFromExtension(name)
	if err != nil {
		return image.Config{}, -1, model.ErrUnsupportedFormat
	}

	switch format {
	case imaging.PNG, imaging.JPEG, imaging.GIF:
	default:
		return image.Config{}, -1, model.ErrUnsupportedFormat
	}

	return cfg, format, nil
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket string) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}

	if exists {
		return nil
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}
