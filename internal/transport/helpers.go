package transport

import (
	"errors"
	"io"
	"log"

	"github.com/alexkarev/imagevault/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrAuthRequired),
		errors.Is(err, model.ErrBadCredentials):
		return 401
	case errors.Is(err, model.ErrAssetNotFound):
		return 404
	case errors.Is(err, model.ErrNoFile),
		errors.Is(err, model.ErrIncorrectID),
		errors.Is(err, model.ErrInvalidPage),
		errors.Is(err, model.ErrDecodeImage),
		errors.Is(err, model.ErrUnsupportedFormat),
		errors.Is(err, model.ErrInvalidGeometry),
		errors.Is(err, model.ErrUserExists):
		return 400
	case errors.Is(err, model.ErrStorageUpload),
		errors.Is(err, model.ErrFetchSource):
		return 502
	case errors.Is(err, model.ErrPersistence),
		errors.Is(err, model.ErrCommon500):
		return 500
	default:
		return 500
	}
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
