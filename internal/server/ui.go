package server

import (
	"embed"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed ui/index.html
var uiFS embed.FS

var indexTmpl = template.Must(template.ParseFS(uiFS, "ui/index.html"))

type indexData struct {
	MaxUploadMB int64
	History     bool
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := indexData{
		MaxUploadMB: s.opts.MaxUploadBytes >> 20,
		History:     s.history != nil,
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		zap.L().Error("render index", zap.Error(err))
	}
}
