package handlers

import (
	"log/slog"
	"net/http"

	"stagepass/internal/cache"
	"stagepass/internal/errors"
	"stagepass/internal/models"
	"stagepass/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services     *service.Services
	catalogCache *cache.CatalogCache
}

func NewHandlers(services *service.Services, catalogCache *cache.CatalogCache) *Handlers {
	return &Handlers{
		services:     services,
		catalogCache: catalogCache,
	}
}

// handleServiceError maps a typed engine error to an HTTP status and the
// common error body. Internal faults are logged here; expected rejections are
// the caller's business and stay quiet.
func (h *Handlers) handleServiceError(c *gin.Context, err error, logMsg string) {
	e := errors.FromError(err)
	if e.Kind == errors.KindInternal {
		slog.Error(logMsg, "error", err, "path", c.Request.URL.Path)
	}

	c.JSON(statusForKind(e.Kind), gin.H{
		"error": models.ErrorBody{Code: e.Code, Message: e.Message},
	})
}

func statusForKind(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindState, errors.KindCapacity:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": models.ErrorBody{Code: errors.CodeInvalidInput, Message: err.Error()},
	})
}
