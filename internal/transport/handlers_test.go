package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexkarev/imagevault/internal/auth"
	"github.com/alexkarev/imagevault/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
)

func TestImageHandler_Ping(t *testing.T) {
	r := gin.New()
	h := NewImageHandler(nil, nil)

	r.GET("/ping", func(c *gin.Context) {
		h.SimplePinger((*ginext.Context)(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "pong", body["message"])
}

func withCaller(owner uuid.UUID, next func(*ginext.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.CallerKey, model.CallerIdentity{OwnerID: owner})
		next((*ginext.Context)(c))
	}
}

func newUploadRequest(t *testing.T, fieldName string, content []byte) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if fieldName != "" {
		fw, err := w.CreateFormFile(fieldName, "cat.png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/images", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestImageHandler_Ingest(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name       string
		req        *http.Request
		mock       *mockImageService
		wantStatus int
	}{
		{
			name: "success",
			req:  newUploadRequest(t, "image", []byte("png-bytes")),
			mock: &mockImageService{
				ingestFn: func(ctx context.Context, caller model.CallerIdentity, data []byte, filename string) (*model.Asset, error) {
					require.Equal(t, owner, caller.OwnerID)
					require.Equal(t, []byte("png-bytes"), data)
					require.Equal(t, "cat.png", filename)
					return &model.Asset{ID: uuid.New(), OwnerID: owner}, nil
				},
			},
			wantStatus: 201,
		},
		{
			name:       "missing image field",
			req:        newUploadRequest(t, "", nil),
			mock:       &mockImageService{},
			wantStatus: 400,
		},
		{
			name: "service rejects empty file",
			req:  newUploadRequest(t, "image", []byte{}),
			mock: &mockImageService{
				ingestFn: func(ctx context.Context, caller model.CallerIdentity, data []byte, filename string) (*model.Asset, error) {
					return nil, model.ErrNoFile
				},
			},
			wantStatus: 400,
		},
		{
			name: "storage down",
			req:  newUploadRequest(t, "image", []byte("png-bytes")),
			mock: &mockImageService{
				ingestFn: func(ctx context.Context, caller model.CallerIdentity, data []byte, filename string) (*model.Asset, error) {
					return nil, model.ErrStorageUpload
				},
			},
			wantStatus: 502,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock, nil)

			r.POST("/images", withCaller(owner, h.Ingest))

			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)

			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestImageHandler_Transform(t *testing.T) {
	owner := uuid.New()
	id := uuid.New().String()

	tests := []struct {
		name       string
		body       string
		mock       *mockImageService
		wantStatus int
	}{
		{
			name: "success",
			body: `{"transformations":{"resize":{"width":50,"height":50},"filters":{"grayscale":true},"format":"png"}}`,
			mock: &mockImageService{
				transformFn: func(ctx context.Context, caller model.CallerIdentity, gotID string, spec model.TransformSpec) (*model.TransformResult, error) {
					require.Equal(t, id, gotID)
					require.NotNil(t, spec.Resize)
					require.Equal(t, 50, spec.Resize.Width)
					require.NotNil(t, spec.Filters)
					require.True(t, spec.Filters.Grayscale)
					return &model.TransformResult{
						AssetID:    uuid.New(),
						URL:        "http://blobs/derived.png",
						ResultMeta: model.ResultMeta{Format: "png", Width: 50, Height: 50, SizeBytes: 321},
					}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name:       "broken body",
			body:       `{"transformations":`,
			mock:       &mockImageService{},
			wantStatus: 400,
		},
		{
			name: "unknown asset",
			body: `{"transformations":{}}`,
			mock: &mockImageService{
				transformFn: func(ctx context.Context, caller model.CallerIdentity, gotID string, spec model.TransformSpec) (*model.TransformResult, error) {
					return nil, model.ErrAssetNotFound
				},
			},
			wantStatus: 404,
		},
		{
			name: "bad geometry",
			body: `{"transformations":{"crop":{"x":0,"y":0,"width":9000,"height":9000}}}`,
			mock: &mockImageService{
				transformFn: func(ctx context.Context, caller model.CallerIdentity, gotID string, spec model.TransformSpec) (*model.TransformResult, error) {
					return nil, model.ErrInvalidGeometry
				},
			},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock, nil)

			r.POST("/images/:id/transform", withCaller(owner, h.Transform))

			req := httptest.NewRequest(http.MethodPost, "/images/"+id+"/transform", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestImageHandler_List(t *testing.T) {
	owner := uuid.New()

	tests := []struct {
		name       string
		query      string
		mock       *mockImageService
		wantStatus int
	}{
		{
			name:  "defaults applied",
			query: "",
			mock: &mockImageService{
				listFn: func(ctx context.Context, caller model.CallerIdentity, req *model.ListRequest) (*model.AssetPage, error) {
					require.Equal(t, 1, req.Page)
					require.Equal(t, 10, req.Limit)
					return &model.AssetPage{Items: []model.Asset{}, CurrentPage: 1, Limit: 10}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name:  "explicit window",
			query: "?page=2&limit=5",
			mock: &mockImageService{
				listFn: func(ctx context.Context, caller model.CallerIdentity, req *model.ListRequest) (*model.AssetPage, error) {
					require.Equal(t, 2, req.Page)
					require.Equal(t, 5, req.Limit)
					return &model.AssetPage{Items: []model.Asset{}, CurrentPage: 2, Limit: 5}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name:       "non-numeric page",
			query:      "?page=abc",
			mock:       &mockImageService{},
			wantStatus: 400,
		},
		{
			name:  "zero page rejected by service",
			query: "?page=0",
			mock: &mockImageService{
				listFn: func(ctx context.Context, caller model.CallerIdentity, req *model.ListRequest) (*model.AssetPage, error) {
					return nil, model.ErrInvalidPage
				},
			},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock, nil)

			r.GET("/images", withCaller(owner, h.List))

			req := httptest.NewRequest(http.MethodGet, "/images"+tt.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestImageHandler_Register(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mock       *mockAuthService
		wantStatus int
	}{
		{
			name: "success",
			body: `{"username":"alice","password":"secret"}`,
			mock: &mockAuthService{
				registerFn: func(ctx context.Context, username, password string) (string, *auth.User, error) {
					require.Equal(t, "alice", username)
					return "token", &auth.User{ID: uuid.New(), Username: username}, nil
				},
			},
			wantStatus: 201,
		},
		{
			name: "duplicate username",
			body: `{"username":"alice","password":"secret"}`,
			mock: &mockAuthService{
				registerFn: func(ctx context.Context, username, password string) (string, *auth.User, error) {
					return "", nil, model.ErrUserExists
				},
			},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(nil, tt.mock)

			r.POST("/register", func(c *gin.Context) {
				h.Register((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestImageHandler_Login_BadCredentials(t *testing.T) {
	r := gin.New()
	h := NewImageHandler(nil, &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (string, *auth.User, error) {
			return "", nil, model.ErrBadCredentials
		},
	})

	r.POST("/login", func(c *gin.Context) {
		h.Login((*ginext.Context)(c))
	})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"username":"alice","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, 401, w.Code)
}
