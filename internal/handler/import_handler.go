package handler

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"gamerank/backend/internal/importer"

	"github.com/gin-gonic/gin"
)

// maxImportSize bounds the catalog document, raw or uploaded as json_file.
const maxImportSize = 20 << 20

// multipartOverhead is the room left for the multipart envelope around json_file.
const multipartOverhead = 1 << 20

var errImportTooLarge = errors.New("Catalog document is too large")

type ImportErrorResponse struct {
	Error  string          `json:"error"`
	Report importer.Report `json:"report"`
}

// ImportCatalog godoc
// @Summary      Bulk import categories and games
// @Description  Upserts the records of a JSON catalog by code. The document may be sent as the
// @Description  multipart field json_file or as the raw request body. Records that cannot be
// @Description  imported are listed in the report instead of failing the request.
// @Tags         admin-import
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        json_file formData  file  false  "Catalog document"
// @Success      200  {object}  importer.Report
// @Failure      400  {object}  ErrorResponse "Unreadable or oversized document"
// @Failure      403  {object}  ErrorResponse "Staff access required"
// @Failure      500  {object}  ImportErrorResponse "Import stopped by a storage failure"
// @Router       /admin/import [post]
func (h *Handler) ImportCatalog(c *gin.Context) {
	body, closeBody, err := importBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer closeBody()

	doc, err := importer.Parse(body)
	if err != nil {
		if tooLarge(err) {
			err = errImportTooLarge
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.Importer.Run(c.Request.Context(), doc)
	if err != nil {
		log.Printf("import stopped after %d categories and %d games: %v",
			report.CategoriesCreated+report.CategoriesUpdated, report.GamesCreated+report.GamesUpdated, err)
		c.JSON(http.StatusInternalServerError, ImportErrorResponse{Error: "Import stopped by a storage failure", Report: report})
		return
	}

	log.Printf("import done: %d categories created, %d updated, %d games created, %d updated, %d skipped",
		report.CategoriesCreated, report.CategoriesUpdated, report.GamesCreated, report.GamesUpdated, report.Skipped())
	c.JSON(http.StatusOK, report)
}

// importBody returns the uploaded json_file when the request is multipart,
// otherwise the request body itself.
func importBody(c *gin.Context) (io.Reader, func(), error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize)
		return c.Request.Body, func() {}, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportSize+multipartOverhead)
	header, err := c.FormFile("json_file")
	if tooLarge(err) {
		return nil, nil, errImportTooLarge
	}
	if err != nil {
		return nil, nil, errors.New("Missing file field json_file")
	}
	if header.Size > maxImportSize {
		return nil, nil, errImportTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
