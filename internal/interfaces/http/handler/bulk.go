package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	bulkapp "github.com/rotem1230/gal1/internal/application/bulk"
	"github.com/rotem1230/gal1/internal/domain/shared"
)

// ArchiveField is the multipart field carrying a whole export archive
const ArchiveField = "archive"

// BulkHandler exchanges the catalog as CSV files
type BulkHandler struct {
	BaseHandler
	bulkService   *bulkapp.Service
	maxUploadSize int64
}

// NewBulkHandler creates a new BulkHandler. maxUploadSize bounds the whole
// multipart body; 0 keeps gin's default memory limit.
func NewBulkHandler(bulkService *bulkapp.Service, maxUploadSize int64) *BulkHandler {
	return &BulkHandler{bulkService: bulkService, maxUploadSize: maxUploadSize}
}

// Export downloads categories, products and variations as a ZIP archive
// GET /bulk/export
func (h *BulkHandler) Export(c *gin.Context) {
	archive, err := h.bulkService.Export(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Attachment(c, archive.Filename, "application/zip", archive.Data)
}

// Import loads uploaded CSV files, one multipart field per entity
// (categories, products, variations), or a single archive field.
// POST /bulk/import?mode=append|replace
func (h *BulkHandler) Import(c *gin.Context) {
	var query bulkapp.ImportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BindError(c, err)
		return
	}
	mode, err := bulkapp.ParseMode(query.Mode)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.BindError(c, fmt.Errorf("multipart upload expected: %w", err))
		return
	}

	files, err := h.collectFiles(form)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	result, err := h.bulkService.Import(c.Request.Context(), files, mode)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *BulkHandler) collectFiles(form *multipart.Form) (bulkapp.Files, error) {
	if headers := form.File[ArchiveField]; len(headers) > 0 {
		data, err := readUpload(headers[0])
		if err != nil {
			return nil, err
		}
		return h.bulkService.FilesFromArchive(data)
	}

	files := make(bulkapp.Files)
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		entity, ok := bulkapp.ParseEntity(field)
		if !ok {
			// Clients may name the field after the file instead
			entity, ok = bulkapp.ParseEntity(headers[0].Filename)
		}
		if !ok {
			continue
		}
		data, err := readUpload(headers[0])
		if err != nil {
			return nil, err
		}
		files[entity] = data
	}
	if len(files) == 0 {
		return nil, shared.NewValidationError("no categories, products or variations file uploaded")
	}
	return files, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, shared.NewValidationError(fmt.Sprintf("cannot open upload %s", header.Filename))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, shared.NewValidationError(fmt.Sprintf("upload %s is truncated", header.Filename))
		}
		return nil, err
	}
	return data, nil
}
