package router_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"car-classifieds/internal/core/auth"
	"car-classifieds/internal/core/slot"
	"car-classifieds/internal/domain"
	"car-classifieds/internal/repo"
	"car-classifieds/internal/service"
	"car-classifieds/internal/transport/http/handler"
	resp "car-classifieds/internal/transport/http/response"
	"car-classifieds/internal/transport/http/router"
	"car-classifieds/internal/upload"
)

const placeholder = "https://via.placeholder.com/800x600.png"

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newEngine(t *testing.T) (*gin.Engine, *auth.JWTer) {
	t.Helper()
	return newEngineWith(t, router.Limits{})
}

func newEngineWith(t *testing.T, lim router.Limits) (*gin.Engine, *auth.JWTer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	store := repo.NewListingStore(slot.NewFileSlot(afero.NewMemMapFs(), "cars.json"), log)
	svc := service.NewListingService(store, nil, log)
	up := upload.Instrument("mock", upload.NewMock(0, placeholder))
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "car-classifieds", TTL: time.Hour}

	r := router.NewAPIEngine(log, jwter, lim,
		handler.NewListingHandler(svc, log),
		handler.NewUploadHandler(up, 1<<20, log),
	)
	return r, jwter
}

func do(t *testing.T, r http.Handler, method, path string, body any, token string) envelope {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func civic() map[string]any {
	return map[string]any{
		"make": "Honda", "model": "Civic", "year": 2019, "price": 89000, "mileage": 42000,
		"color": "Cinza", "fuel_type": "Flex", "transmission": "Automatic",
		"photos": []string{placeholder + "?text=civic.jpg"},
	}
}

func TestHealth(t *testing.T) {
	r, _ := newEngine(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestListings_FullFlow(t *testing.T) {
	r, _ := newEngine(t)
	var id string

	t.Run("create", func(t *testing.T) {
		env := do(t, r, http.MethodPost, "/api/v1/listings", civic(), "")
		require.Equal(t, resp.CodeOK, env.Code, env.Msg)
		var l domain.Listing
		require.NoError(t, json.Unmarshal(env.Data, &l))
		assert.NotEmpty(t, l.ID)
		assert.False(t, l.CreatedAt.IsZero())
		assert.Empty(t, l.Owner)
		id = l.ID
	})
	require.NotEmpty(t, id)

	t.Run("get", func(t *testing.T) {
		env := do(t, r, http.MethodGet, "/api/v1/listings/"+id, nil, "")
		require.Equal(t, resp.CodeOK, env.Code)
		var l domain.Listing
		require.NoError(t, json.Unmarshal(env.Data, &l))
		assert.Equal(t, "Civic", l.Model)
	})

	t.Run("browse with filters", func(t *testing.T) {
		env := do(t, r, http.MethodGet, "/api/v1/listings?q=civic&fuel_type=Flex&price_min=50000&make=all", nil, "")
		require.Equal(t, resp.CodeOK, env.Code)
		var ls []domain.Listing
		require.NoError(t, json.Unmarshal(env.Data, &ls))
		assert.Len(t, ls, 1)

		env = do(t, r, http.MethodGet, "/api/v1/listings?price_max=49999", nil, "")
		require.NoError(t, json.Unmarshal(env.Data, &ls))
		assert.Empty(t, ls)
	})

	t.Run("brands", func(t *testing.T) {
		env := do(t, r, http.MethodGet, "/api/v1/listings/brands", nil, "")
		require.Equal(t, resp.CodeOK, env.Code)
		assert.JSONEq(t, `["Honda"]`, string(env.Data))
	})

	t.Run("patch", func(t *testing.T) {
		env := do(t, r, http.MethodPatch, "/api/v1/listings/"+id, map[string]any{"price": 85000}, "")
		require.Equal(t, resp.CodeOK, env.Code, env.Msg)
		var l domain.Listing
		require.NoError(t, json.Unmarshal(env.Data, &l))
		assert.Equal(t, 85000.0, l.Price)
		assert.Equal(t, "Civic", l.Model)
	})

	t.Run("patch rejects invalid year", func(t *testing.T) {
		env := do(t, r, http.MethodPatch, "/api/v1/listings/"+id, map[string]any{"year": 1950}, "")
		assert.Equal(t, resp.CodeBadRequest, env.Code)
	})

	t.Run("delete", func(t *testing.T) {
		env := do(t, r, http.MethodDelete, "/api/v1/listings/"+id, nil, "")
		require.Equal(t, resp.CodeOK, env.Code)
		assert.JSONEq(t, `{"deleted":true}`, string(env.Data))

		env = do(t, r, http.MethodDelete, "/api/v1/listings/"+id, nil, "")
		assert.JSONEq(t, `{"deleted":false}`, string(env.Data))

		env = do(t, r, http.MethodGet, "/api/v1/listings/"+id, nil, "")
		assert.Equal(t, resp.CodeNotFound, env.Code)
	})
}

func TestListings_Featured(t *testing.T) {
	r, _ := newEngine(t)

	star := civic()
	star["featured"] = true
	require.Equal(t, resp.CodeOK, do(t, r, http.MethodPost, "/api/v1/listings", star, "").Code)
	plain := civic()
	plain["model"] = "City"
	require.Equal(t, resp.CodeOK, do(t, r, http.MethodPost, "/api/v1/listings", plain, "").Code)

	env := do(t, r, http.MethodGet, "/api/v1/listings/featured?make=Honda", nil, "")
	require.Equal(t, resp.CodeOK, env.Code)
	var ls []domain.Listing
	require.NoError(t, json.Unmarshal(env.Data, &ls))
	require.Len(t, ls, 1)
	assert.Equal(t, "Civic", ls[0].Model)
	assert.True(t, ls[0].Featured)

	env = do(t, r, http.MethodGet, "/api/v1/listings?featured=true", nil, "")
	require.NoError(t, json.Unmarshal(env.Data, &ls))
	assert.Len(t, ls, 1)

	env = do(t, r, http.MethodGet, "/api/v1/listings", nil, "")
	require.NoError(t, json.Unmarshal(env.Data, &ls))
	assert.Len(t, ls, 2)
}

func TestListings_Errors(t *testing.T) {
	r, _ := newEngine(t)

	bad := civic()
	bad["fuel_type"] = "Hydrogen"
	assert.Equal(t, resp.CodeBadRequest, do(t, r, http.MethodPost, "/api/v1/listings", bad, "").Code)

	wrongType := civic()
	wrongType["year"] = "2019"
	assert.Equal(t, resp.CodeBadRequest, do(t, r, http.MethodPost, "/api/v1/listings", wrongType, "").Code)

	assert.Equal(t, resp.CodeNotFound, do(t, r, http.MethodPatch, "/api/v1/listings/ghost", map[string]any{"price": 1}, "").Code)
	assert.Equal(t, resp.CodeNotFound, do(t, r, http.MethodGet, "/api/v1/listings/ghost", nil, "").Code)
}

func TestListings_BodyTooLarge(t *testing.T) {
	r, _ := newEngineWith(t, router.Limits{MaxBodyBytes: 64})

	big := civic()
	big["description"] = strings.Repeat("x", 256)
	env := do(t, r, http.MethodPost, "/api/v1/listings", big, "")
	assert.Equal(t, resp.CodeBadRequest, env.Code)
	assert.Equal(t, "request body too large", env.Msg)

	env = postUpload(t, r, map[string][]byte{"front.png": append(pngHeader, make([]byte, 1024)...)})
	assert.Equal(t, resp.CodeBadRequest, env.Code)

	// 限额内的请求不受影响
	assert.Equal(t, resp.CodeOK, do(t, r, http.MethodGet, "/api/v1/listings", nil, "").Code)
}

func TestListings_Identity(t *testing.T) {
	r, jwter := newEngine(t)
	alice, err := jwter.Issue("alice")
	require.NoError(t, err)
	bob, err := jwter.Issue("bob")
	require.NoError(t, err)

	env := do(t, r, http.MethodPost, "/api/v1/listings", civic(), alice)
	require.Equal(t, resp.CodeOK, env.Code)
	var l domain.Listing
	require.NoError(t, json.Unmarshal(env.Data, &l))
	assert.Equal(t, "alice", l.Owner)

	env = do(t, r, http.MethodGet, "/api/v1/listings/mine", nil, alice)
	require.Equal(t, resp.CodeOK, env.Code)
	var mine []domain.Listing
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Len(t, mine, 1)

	env = do(t, r, http.MethodGet, "/api/v1/listings/mine", nil, bob)
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	assert.Empty(t, mine)

	assert.Equal(t, resp.CodeUnauthorized, do(t, r, http.MethodGet, "/api/v1/listings/mine", nil, "").Code)
	assert.Equal(t, resp.CodeUnauthorized, do(t, r, http.MethodGet, "/api/v1/listings", nil, "not-a-jwt").Code)
}

func multipartBody(t *testing.T, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		fw, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func postUpload(t *testing.T, r http.Handler, files map[string][]byte) envelope {
	t.Helper()
	body, ct := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func TestUploads(t *testing.T) {
	r, _ := newEngine(t)

	env := postUpload(t, r, map[string][]byte{"front view.png": pngHeader})
	require.Equal(t, resp.CodeOK, env.Code, env.Msg)
	assert.JSONEq(t, `{"files":[{"name":"front view.png","url":"`+placeholder+`?text=front+view.png"}]}`, string(env.Data))

	env = postUpload(t, r, map[string][]byte{"notes.txt": []byte("just some text")})
	assert.Equal(t, resp.CodeUnsupportedMedia, env.Code)
	assert.True(t, strings.Contains(env.Msg, "notes.txt"))

	env = postUpload(t, r, map[string][]byte{"big.png": append(pngHeader, make([]byte, 2<<20)...)})
	assert.Equal(t, resp.CodeBadRequest, env.Code)
}

func TestUploads_NoFiles(t *testing.T) {
	r, _ := newEngine(t)
	env := postUpload(t, r, map[string][]byte{})
	assert.Equal(t, resp.CodeBadRequest, env.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := newEngine(t)
	do(t, r, http.MethodGet, "/api/v1/listings", nil, "")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
