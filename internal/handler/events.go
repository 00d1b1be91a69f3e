// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/olegiv/muthawwif-go/internal/listing"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/render"
	"github.com/olegiv/muthawwif-go/internal/result"
	"github.com/olegiv/muthawwif-go/internal/store"
	"github.com/olegiv/muthawwif-go/internal/uikit"
)

// EventsHandler shows the audit log.
type EventsHandler struct {
	db       *store.DB
	queries  *store.Queries
	renderer *render.Renderer
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler(db *store.DB, renderer *render.Renderer) *EventsHandler {
	return &EventsHandler{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
	}
}

// eventRow pairs an audit event with its metadata flattened for the table.
type eventRow struct {
	model.Event
	Details     string
	DetailsLong bool
}

// longDetails is the length past which the events table truncates details.
const longDetails = 80

func newEventRow(e model.Event) eventRow {
	d := formatMetadata(e.Metadata)
	return eventRow{Event: e, Details: d, DetailsLong: len(d) > longDetails}
}

// formatMetadata renders an event's JSON metadata as "key: value" pairs in
// key order. Text that is not a JSON object is returned unchanged.
func formatMetadata(metadata string) string {
	dec := json.NewDecoder(strings.NewReader(metadata))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return strings.TrimSpace(metadata)
	}

	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(fields)) {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		switch v := fields[k].(type) {
		case string:
			b.WriteString(v)
		case json.Number, bool:
			fmt.Fprint(&b, v)
		default:
			nested, _ := json.Marshal(v)
			b.Write(nested)
		}
	}
	return b.String()
}

// List handles GET /admin/events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	state := listing.FromQuery(r.URL.Query(), listing.AdminEvents)

	page := listing.Fetch(r.Context(), state, h.db, h.queries.ListEvents)
	logIfError(page.Err(), "failed to list events", "query", state.Query())

	rows := make([]eventRow, 0, len(page.Value().Items))
	for _, e := range page.Value().Items {
		rows = append(rows, newEventRow(e))
	}

	if err := h.renderer.Render(w, r, "admin/events", render.TemplateData{
		Title:       "Log Aktivitas",
		Breadcrumbs: uikit.Crumbs("Dasbor", redirectAdmin, "Log Aktivitas", redirectAdminEvents),
		Data: map[string]any{
			"Events":     result.From(rows, page.Err(), func(r []eventRow) bool { return len(r) == 0 }),
			"Total":      page.Value().Total,
			"State":      state,
			"Levels":     model.ValidEventLevels,
			"Categories": model.EventCategories,
			"Pagination": listingPagination(state, page.Value()),
		},
	}); err != nil {
		serverError(w, "failed to render events", "error", err)
	}
}
