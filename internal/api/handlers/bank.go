package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iQube-Protocol/moneypenny/internal/api/middleware"
	"github.com/iQube-Protocol/moneypenny/internal/gcsuploader"
	"github.com/iQube-Protocol/moneypenny/internal/jobs"
	"github.com/iQube-Protocol/moneypenny/internal/logger"
	"github.com/iQube-Protocol/moneypenny/internal/pipeline"
	"github.com/iQube-Protocol/moneypenny/internal/profile"
	"github.com/iQube-Protocol/moneypenny/internal/records"
)

// DefaultMaxUploadBytes bounds a single multipart request.
const DefaultMaxUploadBytes = 32 << 20

// BankHandler serves the statement ingest and extraction endpoints.
type BankHandler struct {
	svc       *pipeline.Service
	archive   gcsuploader.RawArchive
	publisher jobs.Publisher
	maxUpload int64
	now       func() time.Time
}

// NewBankHandler wires the handler. archive and publisher may be nil; the corresponding
// endpoints then report the feature as disabled.
func NewBankHandler(svc *pipeline.Service, archive gcsuploader.RawArchive, publisher jobs.Publisher) *BankHandler {
	if archive == nil {
		archive = gcsuploader.NopArchive{}
	}
	return &BankHandler{
		svc:       svc,
		archive:   archive,
		publisher: publisher,
		maxUpload: DefaultMaxUploadBytes,
		now:       time.Now,
	}
}

type upload struct {
	filename string
	mimeType string
	data     []byte
}

// Ingest handles POST /bank/ingest
func (h *BankHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tenantID, files, ok := h.readUploads(w, r, "file")
	if !ok {
		return
	}
	f := files[0]
	rawHash := pipeline.HashRaw(f.data)

	uri, err := h.archive.Put(ctx, tenantID, rawHash, f.filename, f.data)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Str("raw_hash", rawHash).Msg("Failed to archive statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store statement")
		return
	}

	storedIn := uri
	if storedIn == "" {
		storedIn = "not archived"
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id": tenantID,
		"raw_hash":  rawHash,
		"file_size": len(f.data),
		"filename":  f.filename,
		"stored_in": storedIn,
		"ts":        h.now().UTC().Format(time.RFC3339),
	})
}

type extractResponse struct {
	TenantID          string                    `json:"tenant_id"`
	RawHash           string                    `json:"raw_hash"`
	Month             string                    `json:"month"`
	Provider          string                    `json:"provider"`
	ArchiveURI        string                    `json:"archive_uri,omitempty"`
	Features          profile.FeatureSet        `json:"features"`
	ProposedOverrides profile.PolicyOverride    `json:"proposed_overrides"`
	Consent           records.Consent           `json:"consent"`
	StatementSummary  pipeline.StatementSummary `json:"statement_summary"`
}

// Extract handles POST /bank/extract
// An optional month_offset form field asks for a calendar-month statement.
func (h *BankHandler) Extract(w http.ResponseWriter, r *http.Request) {
	tenantID, files, ok := h.readUploads(w, r, "file")
	if !ok {
		return
	}

	in := pipeline.Input{
		TenantID: tenantID,
		Filename: files[0].filename,
		Raw:      files[0].data,
		MIMEType: files[0].mimeType,
	}
	if v := strings.TrimSpace(r.FormValue("month_offset")); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, "month_offset must be a non-negative integer", nil)
			return
		}
		in.Monthly, in.MonthOffset = true, offset
	}

	res, err := h.svc.Run(r.Context(), in)
	if err != nil {
		writeProfilingError(r.Context(), w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, extractResponse{
		TenantID:          res.TenantID,
		RawHash:           res.RawHash,
		Month:             res.Month,
		Provider:          res.Provider,
		ArchiveURI:        res.ArchiveURI,
		Features:          res.Features,
		ProposedOverrides: res.Overrides,
		Consent:           records.DefaultConsent(),
		StatementSummary:  res.Summary,
	})
}

// MonthAnalysis is one entry of the bulk extraction response.
type MonthAnalysis struct {
	Month             string                 `json:"month"`
	RawHash           string                 `json:"raw_hash"`
	Filename          string                 `json:"filename"`
	Features          profile.FeatureSet     `json:"features"`
	ProposedOverrides profile.PolicyOverride `json:"proposed_overrides"`
	Period            string                 `json:"period"`
	TransactionCount  int                    `json:"transaction_count"`
}

// BulkExtract handles POST /bank/bulk_extract
// File i of n is treated as the statement n-i-1 months back, so uploads are expected
// oldest first. The response is sorted by month.
func (h *BankHandler) BulkExtract(w http.ResponseWriter, r *http.Request) {
	tenantID, files, ok := h.readUploads(w, r, "files")
	if !ok {
		return
	}

	out := make([]MonthAnalysis, 0, len(files))
	for i, f := range files {
		res, err := h.svc.Run(r.Context(), pipeline.Input{
			TenantID:    tenantID,
			Filename:    f.filename,
			Raw:         f.data,
			MIMEType:    f.mimeType,
			Monthly:     true,
			MonthOffset: len(files) - i - 1,
		})
		if err != nil {
			writeProfilingError(r.Context(), w, fmt.Errorf("file %d (%s): %w", i, f.filename, err))
			return
		}
		out = append(out, MonthAnalysis{
			Month:             res.Month,
			RawHash:           res.RawHash,
			Filename:          f.filename,
			Features:          res.Features,
			ProposedOverrides: res.Overrides,
			Period:            res.Summary.Period,
			TransactionCount:  res.Summary.TransactionCount,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Month < out[j].Month })

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"tenant_id":   tenantID,
		"months":      out,
		"total_files": len(files),
	})
}

// EnqueueExtract handles POST /bank/extract/jobs
func (h *BankHandler) EnqueueExtract(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Job queue is not configured")
		return
	}

	tenantID, files, ok := h.readUploads(w, r, "file")
	if !ok {
		return
	}

	// Workers own the job once it is published, so the response uses values fixed up front.
	jobID := uuid.New().String()
	status := jobs.JobStatusPending
	job := &jobs.ExtractStatementJob{
		JobID:    jobID,
		TenantID: tenantID,
		Filename: files[0].filename,
		Raw:      files[0].data,
		MIMEType: files[0].mimeType,
		Status:   status,
	}
	if err := h.publisher.PublishExtractStatement(r.Context(), job); err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction job")
		return
	}

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":    jobID,
		"tenant_id": tenantID,
		"status":    string(status),
	})
}

// readUploads parses the multipart body and returns tenant_id and every file under field.
// It writes the error response itself and reports ok=false on failure.
func (h *BankHandler) readUploads(w http.ResponseWriter, r *http.Request, field string) (string, []upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, "Expected a multipart form upload", nil)
		return "", nil, false
	}

	tenantID := strings.TrimSpace(r.FormValue("tenant_id"))
	if tenantID == "" {
		middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, "tenant_id is required", nil)
		return "", nil, false
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, field+" is required", nil)
		return "", nil, false
	}

	files := make([]upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			middleware.WriteErrorCode(w, http.StatusBadRequest, CodeBadRequest, "Failed to read "+fh.Filename, nil)
			return "", nil, false
		}
		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "application/octet-stream" {
			mimeType = ""
		}
		files = append(files, upload{
			filename: filepath.Base(fh.Filename),
			mimeType: mimeType,
			data:     data,
		})
	}
	return tenantID, files, true
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
