package httpapi

import (
	"embed"
	"io/fs"
	"net/http"
)

// The browser chat client talks to /v1/chat/ws.
//
//go:embed static/index.html
var chatClient embed.FS

func newStaticHandler() http.Handler {
	sub, err := fs.Sub(chatClient, "static")
	if err != nil {
		return http.NotFoundHandler()
	}
	files := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		files.ServeHTTP(w, r)
	})
}
