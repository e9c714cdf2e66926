package controllers

import (
	"errors"
	"net/http"

	"github.com/franciscosanchezn/partstock/internal/models"
	"github.com/franciscosanchezn/partstock/internal/olx"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
}

func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// respondError maps domain errors onto HTTP statuses and APIError bodies.
func respondError(c *gin.Context, err error) {
	var validationErr *olx.ValidationError
	var transportErr *olx.TransportError
	var shapeErr *olx.ResponseShapeError

	switch {
	case errors.Is(err, olx.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrOLXAuthRequired, "OLX authorization required, start the flow at /api/v1/olx/auth/start"))
	case errors.As(err, &validationErr):
		switch validationErr.Kind {
		case olx.ValidationNotFound:
			c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, validationErr.Message))
		case olx.ValidationConflict:
			c.JSON(http.StatusConflict, models.NewAPIError(models.ErrConflict, validationErr.Message))
		default:
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, validationErr.Message))
		}
	case errors.As(err, &transportErr):
		log.WithError(err).WithField("status_code", transportErr.StatusCode).Warn("Marketplace call failed")
		c.JSON(http.StatusBadGateway, models.NewAPIError(models.ErrOLXUpstream, transportErr.Error(), map[string]interface{}{
			"op":          transportErr.Op,
			"status_code": transportErr.StatusCode,
			"body":        transportErr.Body,
		}))
	case errors.As(err, &shapeErr):
		log.WithError(err).Warn("Marketplace answered with an unexpected shape")
		c.JSON(http.StatusBadGateway, models.NewAPIError(models.ErrOLXBadResponse, shapeErr.Error()))
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, err.Error()))
	default:
		log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "internal error"))
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, message))
}
