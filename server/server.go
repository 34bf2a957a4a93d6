// Copyright 2025 The Matjip Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the catalog and the place search over HTTP.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jcodagnone/matjip/catalog"
	"github.com/jcodagnone/matjip/naver"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeInvalidBounds = "INVALID_BOUNDS"
	CodeInvalidPlace  = "INVALID_PLACE"
	CodePlaceNotFound = "PLACE_NOT_FOUND"
	CodeFetchFailed   = "FETCH_FAILED"
	CodeCreateFailed  = "CREATE_FAILED"
	CodeInvalidQuery  = "INVALID_QUERY"
	CodeProviderError = "PROVIDER_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// DefaultCellResolution is used by /api/cells when res is omitted.
const DefaultCellResolution = 7

// Searcher runs place searches against an external provider.
type Searcher interface {
	Search(ctx context.Context, q naver.Query) (*naver.SearchResponse, error)
}

type Server struct {
	catalog  *catalog.Service
	searcher Searcher
}

// NewServer creates the HTTP server. searcher may be nil when the provider
// credentials are not configured; /api/search then answers CONFIG_ERROR.
func NewServer(svc *catalog.Service, searcher Searcher) *Server {
	return &Server{
		catalog:  svc,
		searcher: searcher,
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	api := r.Group("/api")
	api.GET("/places", s.listPlaces)
	api.POST("/places", s.resolvePlace)
	api.GET("/places/:placeId", s.getPlace)
	api.GET("/cells", s.listCells)
	api.GET("/search", s.search)

	return r
}

func (s *Server) Run(addr string) error {
	log.Printf("Listening on %s", addr)

	return s.Router().Run(addr)
}

func fail(ctx *gin.Context, status int, code string, err error) {
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %s: %v", ctx.Request.Method, ctx.FullPath(), code, err)
	}

	ctx.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "code": code})
}

func (s *Server) viewport(ctx *gin.Context) (catalog.ViewportQuery, bool) {
	q, err := catalog.ParseViewport(
		ctx.Query("lat1"),
		ctx.Query("lng1"),
		ctx.Query("lat2"),
		ctx.Query("lng2"),
		ctx.Query("category"),
	)
	if err != nil {
		fail(ctx, http.StatusBadRequest, CodeInvalidBounds, err)

		return q, false
	}

	return q, true
}

func (s *Server) listPlaces(ctx *gin.Context) {
	q, ok := s.viewport(ctx)
	if !ok {
		return
	}

	markers, err := s.catalog.ListPlacesInViewport(ctx.Request.Context(), q)
	if err != nil {
		if catalog.IsValidation(err) {
			fail(ctx, http.StatusBadRequest, CodeInvalidBounds, err)

			return
		}

		fail(ctx, http.StatusInternalServerError, CodeFetchFailed, err)

		return
	}

	ctx.JSON(http.StatusOK, gin.H{"places": markers})
}

func (s *Server) resolvePlace(ctx *gin.Context) {
	var candidate catalog.CandidatePlace
	if err := ctx.ShouldBindJSON(&candidate); err != nil {
		fail(ctx, http.StatusBadRequest, CodeInvalidPlace, err)

		return
	}

	res, err := s.catalog.Resolve(ctx.Request.Context(), &candidate)
	if err != nil {
		if catalog.IsValidation(err) {
			fail(ctx, http.StatusBadRequest, CodeInvalidPlace, err)

			return
		}

		fail(ctx, http.StatusInternalServerError, CodeCreateFailed, err)

		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (s *Server) getPlace(ctx *gin.Context) {
	place, err := s.catalog.GetPlace(ctx.Request.Context(), ctx.Param("placeId"))
	if err != nil {
		switch {
		case catalog.IsNotFound(err):
			fail(ctx, http.StatusNotFound, CodePlaceNotFound, err)
		case catalog.IsValidation(err):
			fail(ctx, http.StatusBadRequest, CodeInvalidPlace, err)
		default:
			fail(ctx, http.StatusInternalServerError, CodeFetchFailed, err)
		}

		return
	}

	ctx.JSON(http.StatusOK, place)
}

func (s *Server) listCells(ctx *gin.Context) {
	q, ok := s.viewport(ctx)
	if !ok {
		return
	}

	res := DefaultCellResolution

	if raw := ctx.Query("res"); raw != "" {
		var err error

		res, err = strconv.Atoi(raw)
		if err != nil {
			fail(ctx, http.StatusBadRequest, CodeInvalidBounds, catalog.NewValidationError("invalid res "+strconv.Quote(raw), err))

			return
		}
	}

	cells, err := s.catalog.SummarizeCells(ctx.Request.Context(), q, res)
	if err != nil {
		fail(ctx, catalog.HTTPStatus(err), errorCode(err, CodeInvalidBounds, CodeFetchFailed), err)

		return
	}

	if cells == nil {
		cells = []*catalog.CellSummary{}
	}

	ctx.JSON(http.StatusOK, gin.H{"cells": cells, "resolution": res})
}

func errorCode(err error, validation, other string) string {
	if catalog.IsValidation(err) {
		return validation
	}

	return other
}

func (s *Server) search(ctx *gin.Context) {
	q := naver.Query{Text: ctx.Query("query")}

	if raw := ctx.Query("display"); raw != "" {
		display, err := strconv.Atoi(raw)
		if err != nil {
			fail(ctx, http.StatusBadRequest, CodeInvalidQuery, naver.ErrInvalidQuery)

			return
		}

		q.Display = display
	}

	if s.searcher == nil {
		fail(ctx, http.StatusInternalServerError, CodeConfigError, naver.ErrMissingCredentials)

		return
	}

	resp, err := s.searcher.Search(ctx.Request.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, naver.ErrInvalidQuery):
			fail(ctx, http.StatusBadRequest, CodeInvalidQuery, err)
		case naver.IsRateLimitError(err):
			fail(ctx, http.StatusTooManyRequests, CodeProviderError, err)
		default:
			fail(ctx, http.StatusBadGateway, CodeProviderError, err)
		}

		return
	}

	ctx.JSON(http.StatusOK, resp)
}
