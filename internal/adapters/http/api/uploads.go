package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	repository "github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/domain/types"
)

// Multipart form fields of POST /api/upload.
const (
	FormFile     = "file"
	FormPosition = "position"
)

const multipartMemory = 8 << 20

// UploadDependencies defines the ingestion and export operations the
// handlers use.
type UploadDependencies interface {
	Upload(ctx context.Context, req types.UploadRequest) (types.UploadResult, error)
	Uploads(ctx context.Context) ([]model.Upload, error)
	Export(ctx context.Context, w io.Writer, f repository.CandidateFilter) (int, error)
}

// UploadsHandler handles upload and export requests.
type UploadsHandler struct {
	deps     UploadDependencies
	rs       *responder
	maxBytes int64
	now      func() time.Time
}

func newUploadsHandler(deps UploadDependencies, rs *responder, maxBytes int64) *UploadsHandler {
	return &UploadsHandler{deps: deps, rs: rs, maxBytes: maxBytes, now: time.Now}
}

// HandleUpload handles POST /api/upload requests.
func (h *UploadsHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(min(h.maxBytes, multipartMemory)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(FormFile)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrNoFile))
		return
	}
	defer func() { _ = file.Close() }()

	res, err := h.deps.Upload(r.Context(), types.UploadRequest{
		Filename:      header.Filename,
		PositionTitle: r.FormValue(FormPosition),
		Body:          file,
	})
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleList handles GET /api/uploads requests.
func (h *UploadsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_uploads"
	out, err := h.deps.Uploads(r.Context())
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleExport handles GET /api/exports requests. The CSV is buffered so a
// failure can still be reported as a JSON error.
func (h *UploadsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	f, err := candidateFilter(r)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}

	var buf bytes.Buffer
	n, err := h.deps.Export(r.Context(), &buf, f)
	if err != nil {
		h.rs.fail(w, r, op, err)
		return
	}

	name := "candidates-" + h.now().UTC().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("X-Export-Rows", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
