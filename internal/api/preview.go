package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/storelens/storelens/pkg/apierr"
	"github.com/storelens/storelens/pkg/pagination"

	"github.com/storelens/storelens/internal/dataset"
)

// handlePreview returns a row page of a resident dataset. The first request
// takes an optional limit; subsequent pages resume from the returned cursor.
// A cursor issued before a re-upload is rejected rather than silently read
// against the new table.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	kindName := mux.Vars(r)["kind"]
	if !dataset.ValidKind(kindName) {
		apierr.Write(w, apierr.InvalidDataset, "unknown dataset kind: "+kindName)
		return
	}
	h, err := s.store.GetHandle(dataset.Kind(kindName))
	if err != nil {
		apierr.Write(w, apierr.DatasetMissing, "")
		return
	}

	offset := 0
	limit := s.limits.PreviewRowLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n <= 0 {
			apierr.Write(w, apierr.Validation, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > s.limits.PreviewPageLimit {
		limit = s.limits.PreviewPageLimit
	}

	if token := r.URL.Query().Get("cursor"); token != "" {
		c, decErr := pagination.DecodeCursor(token)
		if decErr != nil {
			apierr.Write(w, apierr.CursorInvalid, decErr.Error())
			return
		}
		if c.Ds != kindName || c.Hid != h.ID {
			apierr.Write(w, apierr.CursorInvalid, "cursor does not match the current dataset")
			return
		}
		offset = c.Off
		limit = c.Ps
	}

	total := h.Table.Len()
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	next := ""
	if end < total {
		token, encErr := pagination.EncodeCursor(pagination.Cursor{
			Ds:  kindName,
			Hid: h.ID,
			Off: pagination.NextOffset(offset, end-offset),
			Ps:  limit,
		})
		if encErr != nil {
			apierr.Write(w, apierr.Validation, encErr.Error())
			return
		}
		next = token
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"dataset":     kindName,
		"columns":     h.Table.Columns,
		"rows":        h.Table.Rows[offset:end],
		"offset":      offset,
		"total_rows":  total,
		"next_cursor": next,
	})
}
