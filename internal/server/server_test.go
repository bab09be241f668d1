package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hayoungplace/app/comment"
	"hayoungplace/app/party"
	"hayoungplace/app/place"
	"hayoungplace/domain"
	"hayoungplace/internal/testutil"
	"hayoungplace/pkg/secret"
)

type testServer struct {
	app    *fiber.App
	images *testutil.ImageStorage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gate := secret.SHA256Gate{}
	comments := testutil.NewCommentStore()
	images := testutil.NewImageStorage()

	places := place.NewService(testutil.NewPlaceStore(), gate,
		place.WithThreadCleaner(comments),
		place.WithPageCache(testutil.NewPageCache()),
		place.WithImageStorage(images),
	)

	app := New(Dependencies{
		Places:   places,
		Comments: comment.NewService(comments, places, gate),
		Parties:  party.NewService(testutil.NewPartyStore(), gate),
		Checks: map[string]func(context.Context) error{
			"storage": func(context.Context) error { return nil },
		},
	})
	return &testServer{app: app, images: images}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			encoded, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(encoded)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func placeBody(name, url string) map[string]any {
	return map[string]any{
		"name":      name,
		"address":   "Seoul " + name,
		"placeUrl":  url,
		"longitude": 127.0276,
		"latitude":  "37.4979",
		"category":  "restaurant",
		"password":  "1234",
	}
}

func (s *testServer) createPlace(t *testing.T, name, url string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/places", placeBody(name, url))
	require.Equal(t, http.StatusCreated, status, body)
	return body["id"].(string)
}

func TestPlaceRoutes(t *testing.T) {
	s := newTestServer(t)

	status, created := s.do(t, http.MethodPost, "/api/places", placeBody("Gangnam BBQ", "https://map/1"))
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "RESTAURANT", created["category"])
	assert.Equal(t, "NONE", created["subCategory"])
	assert.NotContains(t, created, "password")
	id := created["id"].(string)

	status, body := s.do(t, http.MethodPost, "/api/places", placeBody("Other", "https://map/1"))
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "duplicate", body["code"])
	assert.Equal(t, "/api/places", body["path"])
	assert.EqualValues(t, http.StatusConflict, body["status"])
	assert.Equal(t, "Conflict", body["error"])

	status, body = s.do(t, http.MethodGet, "/api/places/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["viewCount"])

	status, body = s.do(t, http.MethodGet, "/api/places?page=0&size=10", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["totalElements"])

	status, _ = s.do(t, http.MethodGet, "/api/places/search?query=bbq", nil)
	assert.Equal(t, http.StatusOK, status)

	status, body = s.do(t, http.MethodGet, "/api/places/nearby?longitude=127.0277&latitude=37.4980", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["totalElements"])

	status, body = s.do(t, http.MethodGet, "/api/places/category/RESTAURANT/subcategory/BBQ", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, body["totalElements"])

	status, _ = s.do(t, http.MethodGet, "/api/places/category/CAFE/subcategory/BBQ", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, "/api/places/categories/cafe/subcategories", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["subCategories"], "BAKERY")

	status, _ = s.do(t, http.MethodPost, "/api/places/"+id+"/verify-password", map[string]any{"password": "nope"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = s.do(t, http.MethodPost, "/api/places/"+id+"/verify-password", map[string]any{"password": "1234"})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Password verified.", body["message"])

	update := placeBody("Gangnam BBQ", "https://map/1")
	update["category"] = "RESTAURANT"
	update["subCategory"] = "BBQ"
	update["description"] = "grill"
	delete(update, "longitude")
	delete(update, "latitude")
	status, body = s.do(t, http.MethodPut, "/api/places/"+id, update)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "BBQ", body["subCategory"])

	status, _ = s.do(t, http.MethodDelete, "/api/places/"+id, map[string]any{"password": "1234"})
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.do(t, http.MethodGet, "/api/places/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", body["code"])
}

func TestRequestDecoding(t *testing.T) {
	s := newTestServer(t)

	withExtra := placeBody("Cafe", "https://map/2")
	withExtra["rating"] = 5
	status, body := s.do(t, http.MethodPost, "/api/places", withExtra)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "request.invalid_body", body["code"])

	status, _ = s.do(t, http.MethodPost, "/api/places", `{"name": "x"} {"name": "y"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	missing := placeBody("Cafe", "https://map/2")
	delete(missing, "password")
	status, body = s.do(t, http.MethodPost, "/api/places", missing)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "place.create.validation_failed", body["code"])
	assert.NotEmpty(t, body["details"])

	badCategory := placeBody("Cafe", "https://map/2")
	badCategory["category"] = "SPACESHIP"
	status, body = s.do(t, http.MethodPost, "/api/places", badCategory)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", body["code"])

	status, _ = s.do(t, http.MethodGet, "/api/places/nearby?longitude=abc&latitude=1", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = s.do(t, http.MethodGet, "/api/places?page=922337203685477580&size=20", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["content"])
	assert.EqualValues(t, domain.MaxPage, body["currentPage"])

	status, body = s.do(t, http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "/api/nowhere", body["path"])
}

func TestCommentRoutes(t *testing.T) {
	s := newTestServer(t)
	placeID := s.createPlace(t, "Cafe Layered", "https://map/3")
	base := "/api/places/" + placeID + "/comments"

	status, root := s.do(t, http.MethodPost, base, map[string]any{"nickname": "kim", "password": "pw", "content": "great"})
	require.Equal(t, http.StatusCreated, status)
	rootID := root["id"].(string)

	for _, content := range []string{"agree", "me too"} {
		status, _ = s.do(t, http.MethodPost, base, map[string]any{"parentId": rootID, "nickname": "lee", "password": "pw", "content": content})
		require.Equal(t, http.StatusCreated, status)
	}

	status, list := s.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	content := list["content"].([]any)
	require.Len(t, content, 1)
	assert.Len(t, content[0].(map[string]any)["replies"], 2)

	_, count := s.do(t, http.MethodGet, base+"/count", nil)
	assert.EqualValues(t, 3, count["count"])

	_, detail := s.do(t, http.MethodGet, "/api/places/"+placeID, nil)
	assert.EqualValues(t, 3, detail["commentCount"])

	status, _ = s.do(t, http.MethodPut, base+"/"+rootID, map[string]any{"password": "wrong", "content": "edited"})
	assert.Equal(t, http.StatusForbidden, status)

	status, updated := s.do(t, http.MethodPut, base+"/"+rootID, map[string]any{"password": "pw", "content": "edited"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "edited", updated["content"])

	status, _ = s.do(t, http.MethodDelete, base+"/"+rootID, map[string]any{"password": "pw"})
	assert.Equal(t, http.StatusNoContent, status)

	_, count = s.do(t, http.MethodGet, base+"/count", nil)
	assert.EqualValues(t, 0, count["count"])

	_, list = s.do(t, http.MethodGet, base, nil)
	deleted := list["content"].([]any)[0].(map[string]any)
	assert.Equal(t, true, deleted["isDeleted"])
	assert.Equal(t, "This comment has been deleted.", deleted["content"])

	status, _ = s.do(t, http.MethodPost, "/api/places/missing/comments", map[string]any{"nickname": "kim", "password": "pw", "content": "hi"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestPartyRoutes(t *testing.T) {
	s := newTestServer(t)

	status, created := s.do(t, http.MethodPost, "/api/parties", map[string]any{
		"title":      "Night hike",
		"location":   "Namsan",
		"date":       "2030-01-01T19:00:00Z",
		"maxMembers": 2,
		"tags":       []string{"hike"},
		"nickname":   "host",
		"password":   "pw",
	})
	require.Equal(t, http.StatusCreated, status, created)
	assert.EqualValues(t, 1, created["currentMembers"])
	assert.Equal(t, "RECRUITING", created["status"])
	assert.Contains(t, created, "dDay")
	id := created["id"].(string)

	status, member := s.do(t, http.MethodPost, "/api/parties/"+id+"/join", map[string]any{"nickname": "guest", "password": "pw2"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "guest", member["nickname"])

	_, detail := s.do(t, http.MethodGet, "/api/parties/"+id, nil)
	assert.Equal(t, "COMPLETED", detail["status"])

	status, _ = s.do(t, http.MethodPost, "/api/parties/"+id+"/join", map[string]any{"nickname": "late", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodDelete, "/api/parties/"+id+"/leave?nickname=host", map[string]any{"password": "pw"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = s.do(t, http.MethodDelete, "/api/parties/"+id+"/leave?nickname=guest", map[string]any{"password": "pw2"})
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodPost, "/api/parties/"+id+"/join", map[string]any{"nickname": "host", "password": "pw"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = s.do(t, http.MethodPut, "/api/parties/"+id, map[string]any{
		"title": "Night hike", "location": "Namsan", "date": "2030-01-01T19:00:00Z", "status": "COMPLETED",
	}, "X-Password", "pw")
	assert.Equal(t, http.StatusOK, status)

	status, _ = s.do(t, http.MethodDelete, "/api/parties/"+id, map[string]any{"password": "pw"})
	assert.Equal(t, http.StatusNoContent, status)
}

func TestUploadPlaceImage(t *testing.T) {
	s := newTestServer(t)
	id := s.createPlace(t, "Gallery", "https://map/4")

	upload := func(password, contentType string) int {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("password", password))

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="a.png"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/places/"+id+"/images", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		resp, err := s.app.Test(req, -1)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusCreated, upload("1234", "image/png"))
	assert.Equal(t, http.StatusForbidden, upload("bad", "image/png"))
	assert.Equal(t, http.StatusBadRequest, upload("1234", "application/pdf"))
	assert.Len(t, s.images.Keys(), 1)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "UP", body["status"])

	down := New(Dependencies{
		Checks: map[string]func(context.Context) error{
			"redis": func(context.Context) error { return errors.New("refused") },
		},
	})
	resp, err := down.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestToHTTPError_UnknownErrorsHideDetail(t *testing.T) {
	httpErr := toHTTPError(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.NotContains(t, httpErr.Message, "pq")
}
