package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmednader515/answer-guide-platform/core"
	"github.com/ahmednader515/answer-guide-platform/storage/object"
)

// maxUploadSize caps media uploads at 512 MiB (chapter videos).
const maxUploadSize = 512 << 20

type mediaApi struct {
	media *object.MediaStore
}

func registerMediaAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := mediaApi{media: deps.Media}

	mg := g.Group("/media", jwt, staffMiddleware())
	mg.POST("", api.upload)
}

func (api *mediaApi) upload(ctx echo.Context) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	if fileHeader.Size > maxUploadSize {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file too large"})
	}

	folder := ctx.FormValue("folder")
	if folder == "" {
		folder = "uploads"
	}

	file, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get(echo.HeaderContentType)
	key, err := api.media.Upload(ctx.Request().Context(), folder, fileHeader.Filename, contentType, fileHeader.Size, file)
	if err != nil {
		return errors.Wrap(err, "uploading media")
	}

	return ctx.JSON(http.StatusCreated, UploadResponse{Key: key, URL: api.media.PublicURL(key)})
}

type UploadResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
