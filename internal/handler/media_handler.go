package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"gamerank/backend/internal/media"

	"github.com/gin-gonic/gin"
)

type UploadResponse struct {
	URL string `json:"url" example:"https://cdn.example.com/covers/0b6f.png"`
}

// UploadImage godoc
// @Summary      Upload an image
// @Description  Stores an image of at most 5 MiB in the media bucket and returns its public URL.
// @Description  The URL can then be used as a game or category image.
// @Tags         admin-media
// @Accept       mpfd
// @Produce      json
// @Security     BearerAuth
// @Param        file formData  file  true  "Image file"
// @Success      201  {object}  UploadResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Staff access required"
// @Failure      503  {object}  ErrorResponse "Media storage not configured"
// @Router       /admin/media [post]
func (h *Handler) UploadImage(c *gin.Context) {
	if h.Media == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Media storage is not configured"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field file"})
		return
	}
	if header.Size > media.MaxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image must be 5 MiB or smaller"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	defer file.Close()

	// Trust the content, not the client's declared type.
	sniff := make([]byte, 512)
	n, err := io.ReadFull(file, sniff)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}
	contentType := http.DetectContentType(sniff[:n])
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable file"})
		return
	}

	url, err := h.Media.Upload(c.Request.Context(), header.Filename, contentType, file)
	if errors.Is(err, media.ErrNotImage) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image uploads are accepted"})
		return
	}
	if err != nil {
		log.Printf("upload %s: %v", header.Filename, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to store image"})
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{URL: url})
}
