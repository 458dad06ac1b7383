package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PagesHandler serves the HTML pages and static assets of the frontend.
type PagesHandler struct {
	root string
}

func NewPagesHandler(frontendDir string) *PagesHandler {
	return &PagesHandler{root: frontendDir}
}

// Page serves <frontend>/pages/<name>.
func (h *PagesHandler) Page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.serve(w, r, filepath.Join(h.root, "pages", name))
	}
}

func (h *PagesHandler) DefaultPrompts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, filepath.Join(h.root, "resources", "json", "default_prompts.json"))
}

// Static serves any other file below the frontend directory.
func (h *PagesHandler) Static(w http.ResponseWriter, r *http.Request) {
	rel := path.Clean("/" + strings.TrimPrefix(r.URL.Path, "/"))
	h.serve(w, r, filepath.Join(h.root, filepath.FromSlash(rel)))
}

func (h *PagesHandler) serve(w http.ResponseWriter, r *http.Request, file string) {
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Ressource introuvable", r))
		return
	}
	http.ServeFile(w, r, file)
}
