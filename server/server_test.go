// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/matjip/catalog"
	"github.com/jcodagnone/matjip/naver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	got  naver.Query
	resp *naver.SearchResponse
	err  error
}

func (f *fakeSearcher) Search(_ context.Context, q naver.Query) (*naver.SearchResponse, error) {
	f.got = q
	if _, err := q.Normalize(); err != nil {
		return nil, err
	}

	return f.resp, f.err
}

func setupServerTest(t *testing.T, searcher Searcher) (*gin.Engine, catalog.Repository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := catalog.NewRepository(db)
	require.NoError(t, repo.CreateSchema())

	server := NewServer(catalog.NewService(repo), searcher)

	return server.Router(), repo
}

func doRequest(t *testing.T, router *gin.Engine, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}

	return w, out
}

func TestResolveAndListPlacesAPI(t *testing.T) {
	router, repo := setupServerTest(t, nil)

	candidate := map[string]any{
		"name":         "을지면옥",
		"address":      "서울 중구 을지로",
		"category":     "한식>냉면",
		"latitude":     37.5665,
		"longitude":    126.978,
		"externalLink": "https://example.com/euljimyeonok",
	}

	w, body := doRequest(t, router, http.MethodPost, "/api/places", candidate)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, body["isNew"])

	placeID, ok := body["placeId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, placeID)

	w, body = doRequest(t, router, http.MethodPost, "/api/places", candidate)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["isNew"])
	assert.Equal(t, placeID, body["placeId"])

	// Unreviewed places are not drawn.
	w, body = doRequest(t, router, http.MethodGet, "/api/places?lat1=37.6&lng1=127.0&lat2=37.5&lng2=126.9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["places"])

	require.NoError(t, repo.RecordReviewStats(context.Background(), placeID, 4.0, 3))

	w, body = doRequest(t, router, http.MethodGet, "/api/places?lat1=37.6&lng1=127.0&lat2=37.5&lng2=126.9&category=%ED%95%9C%EC%8B%9D", nil)
	require.Equal(t, http.StatusOK, w.Code)

	places, ok := body["places"].([]any)
	require.True(t, ok)
	require.Len(t, places, 1)

	marker := places[0].(map[string]any)
	assert.Equal(t, placeID, marker["id"])
	assert.Equal(t, "한식", marker["category"])
	assert.InDelta(t, 3, marker["reviewCount"], 0)

	w, body = doRequest(t, router, http.MethodGet, "/api/places?lat1=37.6&lng1=127.0&lat2=37.5&lng2=126.9&category=cafe", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["places"])

	w, body = doRequest(t, router, http.MethodGet, "/api/places/"+placeID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "을지면옥", body["name"])
	assert.Equal(t, "https://example.com/euljimyeonok", body["externalLink"])

	w, body = doRequest(t, router, http.MethodGet, "/api/cells?lat1=37.6&lng1=127.0&lat2=37.5&lng2=126.9&res=8", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 8, body["resolution"], 0)

	cells, ok := body["cells"].([]any)
	require.True(t, ok)
	assert.Len(t, cells, 1)
}

func TestAPIErrors(t *testing.T) {
	router, _ := setupServerTest(t, nil)

	tests := []struct {
		name       string
		method     string
		target     string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"missing bounds", http.MethodGet, "/api/places?lat1=37.5", nil, http.StatusBadRequest, CodeInvalidBounds},
		{"bad bounds", http.MethodGet, "/api/places?lat1=x&lng1=1&lat2=2&lng2=3", nil, http.StatusBadRequest, CodeInvalidBounds},
		{"out of range", http.MethodGet, "/api/places?lat1=95&lng1=1&lat2=2&lng2=3", nil, http.StatusBadRequest, CodeInvalidBounds},
		{"empty name", http.MethodPost, "/api/places", map[string]any{"name": " ", "latitude": 37.5, "longitude": 127}, http.StatusBadRequest, CodeInvalidPlace},
		{"bad latitude", http.MethodPost, "/api/places", map[string]any{"name": "A", "latitude": 137.5, "longitude": 127}, http.StatusBadRequest, CodeInvalidPlace},
		{"not json", http.MethodPost, "/api/places", "nope", http.StatusBadRequest, CodeInvalidPlace},
		{"unknown place", http.MethodGet, "/api/places/nope", nil, http.StatusNotFound, CodePlaceNotFound},
		{"bad res", http.MethodGet, "/api/cells?lat1=37.6&lng1=127.0&lat2=37.5&lng2=126.9&res=x", nil, http.StatusBadRequest, CodeInvalidBounds},
		{"res out of range", http.MethodGet, "/api/cells?lat1=37.6&lng1=127.0&lat2=37.5&lng2=126.9&res=12", nil, http.StatusBadRequest, CodeInvalidBounds},
		{"search without credentials", http.MethodGet, "/api/search?query=%EB%83%89%EB%A9%B4", nil, http.StatusInternalServerError, CodeConfigError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := doRequest(t, router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestSearchAPI(t *testing.T) {
	searcher := &fakeSearcher{resp: &naver.SearchResponse{
		Items: []naver.SearchResult{{
			Title:     "을지면옥",
			Category:  catalog.CategoryKorean,
			Latitude:  37.566,
			Longitude: 126.991,
		}},
		Total: 1,
	}}
	router, _ := setupServerTest(t, searcher)

	w, body := doRequest(t, router, http.MethodGet, "/api/search?query=%EB%83%89%EB%A9%B4&display=5", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "냉면", searcher.got.Text)
	assert.Equal(t, 5, searcher.got.Display)
	assert.InDelta(t, 1, body["total"], 0)

	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "한식", items[0].(map[string]any)["category"])
}

func TestSearchAPIErrors(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"missing query", "/api/search", nil, http.StatusBadRequest, CodeInvalidQuery},
		{"bad display", "/api/search?query=a&display=x", nil, http.StatusBadRequest, CodeInvalidQuery},
		{"display too large", "/api/search?query=a&display=500", nil, http.StatusBadRequest, CodeInvalidQuery},
		{
			"rate limited", "/api/search?query=a",
			&naver.ProviderError{Type: naver.ErrorTypeRateLimit, Message: "rate limit exceeded"},
			http.StatusTooManyRequests, CodeProviderError,
		},
		{
			"provider down", "/api/search?query=a",
			&naver.ProviderError{Type: naver.ErrorTypeUnavailable, Message: "service unavailable"},
			http.StatusBadGateway, CodeProviderError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := setupServerTest(t, &fakeSearcher{err: tt.err, resp: &naver.SearchResponse{}})

			w, body := doRequest(t, router, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}
}
