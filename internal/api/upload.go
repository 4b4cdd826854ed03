package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/storelens/storelens/pkg/apierr"
	"github.com/storelens/storelens/pkg/validation"

	"github.com/storelens/storelens/internal/dataset"
)

type uploadForm struct {
	Filename string `validate:"required,upload_ext"`
}

// handleUpload ingests one multipart file under the path's dataset kind.
// Replacing an existing dataset of the same kind is allowed; the previous
// table is evicted.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	kindName := mux.Vars(r)["kind"]
	if !dataset.ValidKind(kindName) {
		apierr.Write(w, apierr.InvalidDataset, "unknown dataset kind: "+kindName)
		return
	}
	kind := dataset.Kind(kindName)

	r.Body = http.MaxBytesReader(w, r.Body, s.limits.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierr.Write(w, apierr.PayloadTooLarge, "")
			return
		}
		apierr.Write(w, apierr.UploadFailed, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	if msg := validation.ValidateStruct(uploadForm{Filename: header.Filename}); msg != "" {
		apierr.FromText(w, msg)
		return
	}

	start := time.Now()
	table, err := s.loader.LoadUpload(header.Filename, file)
	if err != nil {
		s.hooks.OnUpload(kindName, 0, time.Since(start), err)
		apierr.Write(w, apierr.UploadFailed, err.Error())
		return
	}

	handleID, err := s.store.Put(r.Context(), kind, table)
	if err != nil {
		s.hooks.OnUpload(kindName, 0, time.Since(start), err)
		apierr.Write(w, apierr.BusyResource, "resident dataset limit reached, drop a dataset and retry")
		return
	}

	s.metrics.UploadBytes.Add(float64(header.Size))
	s.metrics.ResidentDatasets.Set(float64(s.store.Count()))
	s.hooks.OnUpload(kindName, table.Len(), time.Since(start), nil)

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"dataset":   kindName,
		"handle_id": handleID,
		"rows":      table.Len(),
		"columns":   table.Columns,
	})
}

// handleListDatasets reports the resident datasets and their row counts.
func (s *Server) handleListDatasets(w http.ResponseWriter, _ *http.Request) {
	type entry struct {
		Dataset string `json:"dataset"`
		Rows    int    `json:"rows"`
	}
	out := make([]entry, 0, len(dataset.Kinds))
	for kind, t := range s.store.Snapshot() {
		out = append(out, entry{Dataset: string(kind), Rows: t.Len()})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"datasets": out})
}

// handleDropDataset evicts one dataset kind.
func (s *Server) handleDropDataset(w http.ResponseWriter, r *http.Request) {
	kindName := mux.Vars(r)["kind"]
	if !dataset.ValidKind(kindName) {
		apierr.Write(w, apierr.InvalidDataset, "unknown dataset kind: "+kindName)
		return
	}
	if err := s.store.Drop(dataset.Kind(kindName)); err != nil {
		apierr.Write(w, apierr.DatasetMissing, "")
		return
	}
	s.metrics.ResidentDatasets.Set(float64(s.store.Count()))
	s.writeJSON(w, http.StatusOK, map[string]any{"dataset": kindName, "dropped": true})
}
