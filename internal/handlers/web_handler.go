package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pairup/backend/internal/models"
)

// AppRoutes are the client-side routes that all render the bundle's index.html.
var AppRoutes = []string{"/", "/signup", "/login", "/profile", "/terms-of-service", "/privacy-policy"}

// WebHandler serves the built web app from dir.
type WebHandler struct {
	dir string
}

func NewWebHandler(dir string) *WebHandler {
	return &WebHandler{dir: dir}
}

// Mount registers the app routes and the static fallback on r.
func (h *WebHandler) Mount(r chi.Router) {
	for _, p := range AppRoutes {
		r.Get(p, h.Index)
	}
	r.NotFound(h.Static)
}

func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
}

// Static serves files from the bundle and 404.html for everything else. Unknown
// /api paths get a JSON 404 instead.
func (h *WebHandler) Static(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	if clean == "/api" || strings.HasPrefix(clean, "/api/") {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Not found"))
		return
	}
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		name := filepath.Join(h.dir, filepath.FromSlash(clean))
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() {
			http.ServeFile(w, r, name)
			return
		}
	}
	h.notFound(w)
}

func (h *WebHandler) notFound(w http.ResponseWriter) {
	page, err := os.ReadFile(filepath.Join(h.dir, "404.html"))
	if err != nil {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(page)
}

// RedirectShim restores deep links that static hosting folded into the query string:
// /?/a/b&x=1~and~y=2 becomes a 302 to /a/b?x=1&y=2.
func RedirectShim(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if target, ok := shimTarget(r.URL.Path, r.URL.RawQuery); ok {
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func shimTarget(urlPath, rawQuery string) (string, bool) {
	if urlPath != "/" || !strings.HasPrefix(rawQuery, "/") {
		return "", false
	}
	parts := strings.Split(rawQuery, "&")
	target := strings.ReplaceAll(parts[0], "~and~", "&")
	if len(parts) > 1 {
		target += "?" + strings.ReplaceAll(parts[1], "~and~", "&")
	}
	// Browsers treat a leading "//" or "/\" as another host.
	if strings.Contains(target, `\`) || (len(target) > 1 && target[1] == '/') {
		return "", false
	}
	return target, true
}
