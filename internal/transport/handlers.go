// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"io"
	"strconv"

	"github.com/alexkarev/imagevault/internal/auth"
	"github.com/alexkarev/imagevault/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type ImageHandler struct {
	service ImageService
	auth    AuthService
}

type ImageService interface {
	Ingest(ctx context.Context, caller model.CallerIdentity, data []byte, filename string) (*model.Asset, error)
	TransformAsset(ctx context.Context, caller model.CallerIdentity, id string, spec model.TransformSpec) (*model.TransformResult, error)
	List(ctx context.Context, caller model.CallerIdentity, req *model.ListRequest) (*model.AssetPage, error)
	Get(ctx context.Context, caller model.CallerIdentity, id string) (*model.Asset, error)
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (string, *auth.User, error)
	Login(ctx context.Context, username, password string) (string, *auth.User, error)
}

func NewImageHandler(svc ImageService, authSvc AuthService) *ImageHandler {
	return &ImageHandler{
		service: svc,
		auth:    authSvc,
	}
}

func (h ImageHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string     `json:"token"`
	User  *auth.User `json:"user"`
}

func (h ImageHandler) Register(ctx *ginext.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "username and password are required"})
		return
	}

	token, user, err := h.auth.Register(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, tokenResponse{Token: token, User: user})
}

func (h ImageHandler) Login(ctx *ginext.Context) {
	var req credentialsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "username and password are required"})
		return
	}

	token, user, err := h.auth.Login(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, tokenResponse{Token: token, User: user})
}

// Ingest accepts a multipart upload under the "image" field. The multipart
// reader is the only staging area - it is closed on every exit path.
func (h ImageHandler) Ingest(ctx *ginext.Context) {
	caller := auth.CallerFromGin(ctx)

	file, header, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(errorCodeDefiner(model.ErrNoFile), map[string]string{"error": model.ErrNoFile.Error()})
		return
	}
	defer closeFileFlow(file)

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to read uploaded file"})
		return
	}

	res, err := h.service.Ingest(ctx.Request.Context(), caller, data, header.Filename)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, res)
}

type transformRequest struct {
	Transformations model.TransformSpec `json:"transformations"`
}

func (h ImageHandler) Transform(ctx *ginext.Context) {
	caller := auth.CallerFromGin(ctx)
	id := ctx.Param("id")

	var req transformRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse transformation spec"})
		return
	}

	res, err := h.service.TransformAsset(ctx.Request.Context(), caller, id, req.Transformations)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) GetAsset(ctx *ginext.Context) {
	caller := auth.CallerFromGin(ctx)
	id := ctx.Param("id")

	res, err := h.service.Get(ctx.Request.Context(), caller, id)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) List(ctx *ginext.Context) {
	caller := auth.CallerFromGin(ctx)

	page, errP := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, errL := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if errP != nil || errL != nil {
		ctx.JSON(errorCodeDefiner(model.ErrInvalidPage), map[string]string{"error": model.ErrInvalidPage.Error()})
		return
	}

	res, err := h.service.List(ctx.Request.Context(), caller, &model.ListRequest{Page: page, Limit: limit})
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}
