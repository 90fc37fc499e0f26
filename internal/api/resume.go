package api

import (
	"bytes"
	"net/http"
)

func handleResumePDF(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Resume == nil {
			httpError(w, http.StatusNotFound, "not_found", "no resume configured")
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `inline; filename="resume.pdf"`)
		http.ServeContent(w, r, "resume.pdf", deps.Resume.ModTime, bytes.NewReader(deps.Resume.Data))
	}
}

func handleResumeText(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Resume == nil {
			httpError(w, http.StatusNotFound, "not_found", "no resume configured")
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(deps.Resume.Text))
	}
}
