package handlers

import (
	"cryptochat/storage"
	"log/slog"
	"net/http"
	"path"
)

// ObjectHandler serves stored objects behind their public URLs.
type ObjectHandler struct {
	objects storage.IObjectStore
	log     *slog.Logger
}

func NewObjectHandler(objects storage.IObjectStore, log *slog.Logger) *ObjectHandler {
	return &ObjectHandler{objects: objects, log: log}
}

func (h *ObjectHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /objects/{path...}", h.handle)
}

func (h *ObjectHandler) handle(w http.ResponseWriter, r *http.Request) {
	objectPath := r.PathValue("path")
	file, err := h.objects.Open(objectPath)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, path.Base(objectPath), info.ModTime(), file)
}
