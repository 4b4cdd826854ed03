package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/storelens/storelens/pkg/apierr"

	"github.com/storelens/storelens/internal/dataset"
	"github.com/storelens/storelens/internal/security"
)

type loadBody struct {
	Path string `json:"path"`
}

// handleLoadPath ingests a dataset from a file already on the server, for
// deployments that drop exports into a watched directory instead of posting
// uploads. Paths are validated against the security allow-list; the route
// stays disabled until allow-list directories are configured.
func (s *Server) handleLoadPath(w http.ResponseWriter, r *http.Request) {
	kindName := mux.Vars(r)["kind"]
	if !dataset.ValidKind(kindName) {
		apierr.Write(w, apierr.InvalidDataset, "unknown dataset kind: "+kindName)
		return
	}
	if s.security == nil || s.security.ValidateConfig() != nil {
		apierr.Write(w, apierr.PermissionDenied, "server-side loads are disabled; no allowed directories configured")
		return
	}

	var body loadBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		apierr.Write(w, apierr.Validation, "invalid JSON body: "+err.Error())
		return
	}
	if body.Path == "" {
		apierr.Write(w, apierr.Validation, "path is required")
		return
	}

	path, err := s.security.ValidateOpenPath(body.Path)
	if err != nil {
		switch {
		case errors.Is(err, security.ErrUnsupportedExtension):
			apierr.Write(w, apierr.UnsupportedFormat, "")
		case errors.Is(err, security.ErrNotFound):
			apierr.Write(w, apierr.UploadFailed, "file not found")
		default:
			apierr.Write(w, apierr.PermissionDenied, "")
		}
		return
	}

	f, err := os.Open(path)
	if err != nil {
		apierr.Write(w, apierr.UploadFailed, err.Error())
		return
	}
	defer f.Close()

	start := time.Now()
	table, err := s.loader.LoadFile(path, f)
	if err != nil {
		s.hooks.OnUpload(kindName, 0, time.Since(start), err)
		apierr.Write(w, apierr.UploadFailed, err.Error())
		return
	}

	handleID, err := s.store.Put(r.Context(), dataset.Kind(kindName), table)
	if err != nil {
		s.hooks.OnUpload(kindName, 0, time.Since(start), err)
		apierr.Write(w, apierr.BusyResource, "resident dataset limit reached, drop a dataset and retry")
		return
	}

	s.metrics.ResidentDatasets.Set(float64(s.store.Count()))
	s.hooks.OnUpload(kindName, table.Len(), time.Since(start), nil)

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"dataset":   kindName,
		"handle_id": handleID,
		"rows":      table.Len(),
		"columns":   table.Columns,
	})
}
