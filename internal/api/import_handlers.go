package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/shutterboxapp/shutterbox/internal/api/dto"
	"github.com/shutterboxapp/shutterbox/internal/http/response"
	"github.com/shutterboxapp/shutterbox/internal/ingest"
	"github.com/shutterboxapp/shutterbox/internal/service"
)

// uploadFormField is the multipart field carrying picked files.
const uploadFormField = "files"

// ImportReportResponse is the body returned for POST /api/v1/imports.
type ImportReportResponse struct {
	BatchID   string                  `json:"batch_id"`
	Imported  []dto.AssetResponse     `json:"imported"`
	Failures  []service.ImportFailure `json:"failures"`
	Abandoned int                     `json:"abandoned"`
}

// partSource adapts an uploaded multipart file to ingest.Source.
type partSource struct {
	header *multipart.FileHeader
}

func (p partSource) Name() string { return p.header.Filename }

func (p partSource) Open(_ context.Context) (io.ReadCloser, error) {
	return p.header.Open()
}

// handleImport accepts a multipart upload and imports every file in the
// "files" field as one batch. Responds 201 when anything was imported.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUpload {
		response.RequestTooLarge(w, "upload exceeds the size limit", s.logger)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RequestTooLarge(w, "upload exceeds the size limit", s.logger)
			return
		}
		response.BadRequest(w, "expected a multipart form", s.logger)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	headers := r.MultipartForm.File[uploadFormField]
	sources := make([]ingest.Source, len(headers))
	for i, h := range headers {
		sources[i] = partSource{header: h}
	}

	report, err := s.services.Assets.Import(r.Context(), sources)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	body := ImportReportResponse{
		BatchID:   report.BatchID,
		Imported:  dto.FromAssets(report.Imported),
		Failures:  report.Failures,
		Abandoned: report.Abandoned,
	}
	if len(report.Imported) > 0 {
		response.Created(w, body, s.logger)
		return
	}
	response.Success(w, body, s.logger)
}
