package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/services"
	"github.com/franciscosanchezn/partstock/internal/storage"
	"github.com/gin-gonic/gin"
)

// MaxPhotoBytes caps a single photo upload.
const MaxPhotoBytes = 10 << 20

type PhotoController struct {
	photos services.PhotoService
}

func NewPhotoController(photos services.PhotoService) *PhotoController {
	return &PhotoController{photos: photos}
}

// Upload godoc
// @Summary Upload a unit photo
// @Description Stages an image for the unit's advert; at most 9 photos per unit
// @Tags units
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Unit ID"
// @Param file formData file true "Image file"
// @Success 201 {object} services.UploadedPhoto
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /api/v1/units/{id}/photos [post]
func (pc *PhotoController) Upload(c *gin.Context) {
	unitID, ok := pathID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		badRequest(c, "file must be an image")
		return
	}
	if header.Size > MaxPhotoBytes {
		badRequest(c, "file is too large")
		return
	}

	file, err := header.Open()
	if err != nil {
		badRequest(c, "unreadable file")
		return
	}
	defer file.Close()

	photo, err := pc.photos.AddUnitPhoto(c.Request.Context(), unitID, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// Serve godoc
// @Summary Serve a staged photo
// @Description Public so the marketplace can fetch advert images
// @Tags units
// @Produce image/jpeg
// @Param path path string true "Path under the photo root"
// @Success 200 {file} binary
// @Failure 404 {object} models.APIError
// @Router /photos/{path} [get]
func (pc *PhotoController) Serve(c *gin.Context) {
	relPath := strings.TrimPrefix(c.Param("filepath"), "/")
	data, err := pc.photos.ReadPhoto(c.Request.Context(), relPath)
	if err != nil {
		if errors.Is(err, storage.ErrNotStaged) || errors.Is(err, storage.ErrInvalidPath) {
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "photo not found"))
			return
		}
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
