// Package model provides data-structs for internal app-usage
package model

import (
	"errors"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

// Asset is one persisted image record. Format/Width/Height always describe
// the bytes currently behind URL - they are only written together with a
// successful blob upload.
type Asset struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"-"`
	StorageKey string    `json:"-"`
	URL        string    `json:"url"`
	Format     string    `json:"format"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CallerIdentity is the verified identity attached by the auth layer.
// Core operations receive it as an explicit argument, never from globals.
type CallerIdentity struct {
	OwnerID uuid.UUID
}

//---------------------

// TransformSpec is a request-scoped set of optional pixel operations.
// Operations apply in the declared order: resize, crop, rotate, filters.
type TransformSpec struct {
	Resize  *ResizeSpec `json:"resize,omitempty"`
	Crop    *CropSpec   `json:"crop,omitempty"`
	Rotate  *RotateSpec `json:"rotate,omitempty"`
	Filters *FilterSpec `json:"filters,omitempty"`
	Format  string      `json:"format,omitempty"`
}

type ResizeSpec struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CropSpec offsets are absolute pixels from the top-left of the current
// buffer (after resize, if requested).
type CropSpec struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type RotateSpec struct {
	Degrees float64 `json:"degrees"`
}

type FilterSpec struct {
	Grayscale bool `json:"grayscale"`
	Sepia     bool `json:"sepia"`
}

// ResultMeta describes the encoded output of one engine run.
type ResultMeta struct {
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	SizeBytes int    `json:"size"`
}

// TransformResult is what the transform pipeline returns to the caller:
// the persisted derived asset plus its output metadata.
type TransformResult struct {
	AssetID uuid.UUID `json:"id"`
	URL     string    `json:"url"`
	ResultMeta
}

//-------------------

// BlobInfo is the blob store's answer to one upload.
type BlobInfo struct {
	Key    string
	URL    string
	Format string
	Width  int
	Height int
}

// OrphanEvent is published when a blob was stored but its metadata write
// failed, so the reconciler can remove the unreferenced object.
type OrphanEvent struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	OwnerID   string `json:"owner_id"`
	Reason    string `json:"reason"`
}

//-------------------

type ListRequest struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// AssetPage is one listing window plus pagination info.
type AssetPage struct {
	Items       []Asset `json:"items"`
	CurrentPage int     `json:"current_page"`
	TotalItems  int64   `json:"total_items"`
	Limit       int     `json:"limit"`
}

// ------------------

var (
	ErrCommon500         error = errors.New("something went wrong. Try again later")     // 500
	ErrAuthRequired      error = errors.New("authentication required")                   // 401
	ErrNoFile            error = errors.New("no file uploaded")                          // 400
	ErrIncorrectID       error = errors.New("incorrect asset UUID")                      // 400
	ErrAssetNotFound     error = errors.New("specified asset doesn't exist")             // 404
	ErrInvalidPage       error = errors.New("page and limit must be positive")           // 400
	ErrDecodeImage       error = errors.New("provided bytes are not a recognized image") // 400
	ErrUnsupportedFormat error = errors.New("requested output format is not supported")  // 400
	ErrInvalidGeometry   error = errors.New("incorrect resize/crop geometry")            // 400
	ErrStorageUpload     error = errors.New("object storage rejected the upload")        // 502
	ErrFetchSource       error = errors.New("failed to fetch source image bytes")        // 502
	ErrPersistence       error = errors.New("failed to persist asset metadata")          // 500
	ErrUserExists        error = errors.New("username already exists")                   // 400
	ErrBadCredentials    error = errors.New("invalid username or password")              // 401
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
}

var InImageTypeMap = map[string]bool{
	JPEG: true,
	PNG:  true,
	GIF:  true,
}

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.GIF:  GIF,
	imaging.PNG:  PNG,
}

// FormatName maps an imaging codec to the lower-case name stored on assets.
var FormatName = map[imaging.Format]string{
	imaging.JPEG: "jpeg",
	imaging.PNG:  "png",
	imaging.GIF:  "gif",
}

// EncodeFormat resolves a requested output format name; "jpeg" is the
// default when the spec leaves it unset.
func EncodeFormat(name string) (imaging.Format, error) {
	switch name {
	case "", "jpg", "jpeg":
		return imaging.JPEG, nil
	case "png":
		return imaging.PNG, nil
	case "gif":
		return imaging.GIF, nil
	default:
		return -1, ErrUnsupportedFormat
	}
}
