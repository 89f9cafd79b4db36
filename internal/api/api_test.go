package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/recipebook/backend/internal/auth"
	"github.com/recipebook/backend/internal/mocks"
	"github.com/recipebook/backend/internal/repository"
	"github.com/recipebook/backend/internal/service"
	"github.com/recipebook/backend/internal/testhelpers"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testAPI struct {
	router *gin.Engine
	images *mocks.MockImageUploader
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := testhelpers.SetupSQLiteDatabase(t)

	authService := auth.NewService(db, auth.Options{
		Secret:     "test-secret",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, auth.NewMemoryRevocationStore(), nil)
	images := new(mocks.MockImageUploader)

	router := gin.New()
	RegisterRoutes(router, Deps{
		Auth:     authService,
		Tokens:   authService,
		Recipes:  service.NewRecipeService(repository.NewRecipeRepository(db, nil), images, nil, nil),
		Profiles: service.NewProfileService(repository.NewProfileRepository(db, nil), nil, nil),
		Images:   images,
	})
	return &testAPI{router: router, images: images}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) multipart(t *testing.T, method, path, token string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// signUp registers a user and returns its id and access token.
func (a *testAPI) signUp(t *testing.T, email, name string) (string, string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": email, "password": testhelpers.TestPassword, "name": name,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": email, "password": testhelpers.TestPassword,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session auth.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	return session.User.ID, session.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
