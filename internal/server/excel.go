package server

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"lifelink/internal/mirror"
	"lifelink/pkg/types"
)

const (
	importFormField = "excelFile"
	maxImportBytes  = 32 << 20
)

func (s *Service) writeWorkbook(w http.ResponseWriter, filename string, doc []byte) {
	w.Header().Set("Content-Type", mirror.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)

	_, err := w.Write(doc)
	if err != nil {
		s.logger.WithError(err).Error("failed to write workbook response")
	}
}

func (s *Service) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	donors, err := s.registration.Donors(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	patients, err := s.registration.Patients(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, err := s.mirror.Export(ctx, donors, patients)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeWorkbook(w, fmt.Sprintf("lifelink_export_%s.xlsx", time.Now().UTC().Format("20060102")), doc)
}

func (s *Service) handleImportExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	file, _, err := r.FormFile(importFormField)
	if err != nil {
		s.writeError(w, r, types.NewFieldError(importFormField, "No file uploaded"))
		return
	}
	defer file.Close()

	doc, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to read upload: %w", types.ErrInvalidInput))
		return
	}

	summary, err := s.mirror.Import(r.Context(), doc, s.importStores)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		*mirror.ImportSummary
	}{
		Message:       "Import successful",
		ImportSummary: summary,
	})
}

func (s *Service) handleDownloadMirror(w http.ResponseWriter, r *http.Request) {
	doc, err := s.mirror.Download()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeWorkbook(w, "lifelink_db.xlsx", doc)
}
