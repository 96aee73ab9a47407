package handler

import (
	"bytes"
	"html/template"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sendto/internal/media"
	"github.com/sendto/internal/receiver"
	"github.com/sendto/internal/submission"
)

// ReceiveHandler stands in for Manuscript's screenshot endpoint.
type ReceiveHandler struct {
	BaseHandler
	inbox           *receiver.Inbox
	templates       *template.Template
	maxUploadSizeMB int
}

// NewReceiveHandler creates a handler storing submissions in inbox.
func NewReceiveHandler(logger *slog.Logger, inbox *receiver.Inbox, tmpl *template.Template, maxUploadSizeMB int) *ReceiveHandler {
	return &ReceiveHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		inbox:           inbox,
		templates:       tmpl,
		maxUploadSizeMB: maxUploadSizeMB,
	}
}

// Submit accepts a send form, reassembles the fragments and keeps the image.
func (h *ReceiveHandler) Submit(w http.ResponseWriter, r *http.Request) {
	maxSize := int64(h.maxUploadSizeMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := parseForm(r, maxSize); err != nil {
		h.Logger.Warn("receive: form parse failed", "error", err)
		http.Error(w, "Form too large or invalid", http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	payload, err := submission.ParseForm(r.PostForm)
	if err != nil {
		h.Logger.Warn("receive: submission rejected", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	img, err := media.DecodePNG(payload.PNG)
	if err != nil {
		h.Logger.Warn("receive: image rejected", "error", err)
		http.Error(w, "Image is not a valid PNG", http.StatusBadRequest)
		return
	}

	sub := h.inbox.Add(payload, img.Bounds())
	h.Logger.Info("receive: screenshot received",
		"id", sub.ID,
		"mode", sub.ModeName,
		"case", sub.CaseID,
		"fragments", sub.Fragments,
		"bytes", len(sub.PNG),
	)

	h.render(w, r, "receiver_received.html", sub)
}

// Index lists the kept submissions.
func (h *ReceiveHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "receiver_index.html", h.inbox.List())
}

// List returns the kept submissions as JSON.
func (h *ReceiveHandler) List(w http.ResponseWriter, r *http.Request) {
	if err := h.writeJSON(w, http.StatusOK, envelope{"submissions": h.inbox.List()}, nil); err != nil {
		h.logError(r, err)
	}
}

// Image serves a kept submission's PNG.
func (h *ReceiveHandler) Image(w http.ResponseWriter, r *http.Request) {
	sub, ok := h.inbox.Get(chi.URLParam(r, "id"))
	if !ok {
		h.notFoundResponse(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(sub.PNG)))
	_, _ = w.Write(sub.PNG)
}

func (h *ReceiveHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logError(r, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func parseForm(r *http.Request, maxSize int64) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxSize)
	}
	return r.ParseForm()
}
