// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/util"
)

// ClientIDHeader lets a browser tab identify itself so its listing
// generations are tracked apart from other tabs behind the same IP.
const ClientIDHeader = "X-Client-ID"

const maxClientIDLen = 64

// clientKey identifies the caller for generation tracking. Callers without
// a usable X-Client-ID share a key per IP, and identified is false.
func clientKey(r *http.Request, listingName string) (key string, identified bool) {
	id := strings.TrimSpace(r.Header.Get(ClientIDHeader))
	if id == "" || len(id) > maxClientIDLen {
		return listingName + ":" + util.ClientIP(r), false
	}
	return listingName + ":" + id, true
}

// parseGen reads the gen query parameter. Missing or malformed values
// yield 0, which lets the tracker assign the next generation.
func parseGen(r *http.Request) uint64 {
	gen, err := strconv.ParseUint(r.URL.Query().Get("gen"), 10, 64)
	if err != nil {
		return 0
	}
	return gen
}

// requestGen is the generation to track r under. Client generations are
// honoured only for identified clients, since unrelated clients behind
// one IP would otherwise mark each other's fetches stale.
func requestGen(r *http.Request, identified bool) uint64 {
	if !identified {
		return 0
	}
	return parseGen(r)
}

// serveListing runs one tracked listing fetch. A request superseded by a
// newer generation from the same client answers {"success":true,"stale":true}
// without rows.
func serveListing[T any](
	h *Handler,
	w http.ResponseWriter,
	r *http.Request,
	name string,
	spec *listing.Spec,
	list func(context.Context, *store.Query) ([]T, error),
) {
	state := listing.FromQuery(r.URL.Query(), spec)

	key, identified := clientKey(r, name)
	ctx, ticket := h.tracker.BeginAt(r.Context(), key, requestGen(r, identified))
	defer ticket.Done()

	if !ticket.Current() {
		writeStale(w, ticket.Gen())
		return
	}

	res := listing.Fetch(ctx, state, h.db, list)
	if !ticket.Current() {
		writeStale(w, ticket.Gen())
		return
	}
	if res.IsError() {
		WriteInternalError(w, "api listing failed", res.Err(), "listing", name, "query", state.Query())
		return
	}

	page := res.Value()
	WriteSuccess(w, http.StatusOK, map[string]any{
		"gen":   ticket.Gen(),
		"empty": res.IsEmpty(),
		"data":  page,
		"state": state.Values(),
	})
}

func writeStale(w http.ResponseWriter, gen uint64) {
	WriteSuccess(w, http.StatusOK, map[string]any{"stale": true, "gen": gen})
}

// Posts handles GET /api/v1/posts.
func (h *Handler) Posts(w http.ResponseWriter, r *http.Request) {
	serveListing(h, w, r, "posts", listing.Blog, func(ctx context.Context, q *store.Query) ([]PostResponse, error) {
		posts, err := h.queries.ListPosts(ctx, q)
		if err != nil {
			return nil, err
		}
		return postsToResponse(posts), nil
	})
}

// Products handles GET /api/v1/products.
func (h *Handler) Products(w http.ResponseWriter, r *http.Request) {
	serveListing(h, w, r, "products", listing.Products, func(ctx context.Context, q *store.Query) ([]ProductResponse, error) {
		products, err := h.queries.ListProducts(ctx, q)
		if err != nil {
			return nil, err
		}
		out := make([]ProductResponse, len(products))
		for i, p := range products {
			out[i] = productToResponse(p)
		}
		return out, nil
	})
}

func postsToResponse(posts []model.Post) []PostResponse {
	out := make([]PostResponse, len(posts))
	for i, p := range posts {
		out[i] = postToResponse(p)
	}
	return out
}
