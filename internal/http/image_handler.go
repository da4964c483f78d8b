package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/service"
)

const (
	imageFormField  = "file"
	multipartMemory = 1 << 20
)

type imageHandler struct {
	logger         *slog.Logger
	imageSvc       service.ImageService
	maxUploadBytes int64
}

func newImageHandler(logger *slog.Logger, imageSvc service.ImageService, maxUploadBytes int64) *imageHandler {
	return &imageHandler{
		logger:         logger,
		imageSvc:       imageSvc,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *imageHandler) UploadImage(w http.ResponseWriter, r *http.Request) error {
	productID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}
	primary, err := queryOptional[bool](r, "primary")
	if err != nil {
		return err
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.ValidationErr.WithMsg(fmt.Sprintf("image exceeds %d bytes", h.maxUploadBytes))
		}
		return apperr.ValidationErr.WithMsg("invalid multipart form").WrapParent(err)
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	file, header, err := r.FormFile(imageFormField)
	if err != nil {
		return apperr.ValidationErr.WithMsg("multipart field file is required").WrapParent(err)
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	image, err := h.imageSvc.UploadImage(r.Context(), productID, service.UploadImageParams{
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Primary:     primary != nil && *primary,
		Body:        file,
	})
	if err != nil {
		return fmt.Errorf("image service upload image: %w", err)
	}

	writeJSON(w, r, h.logger, http.StatusCreated, toImageResponse(image))
	return nil
}

func (h *imageHandler) DownloadImage(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "imageId")
	if err != nil {
		return err
	}

	_, obj, err := h.imageSvc.DownloadImage(r.Context(), id)
	if err != nil {
		return fmt.Errorf("image service download image: %w", err)
	}
	defer obj.Body.Close()

	w.Header().Set("Content-Type", obj.ContentType)
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.WarnContext(r.Context(), "error streaming image", slog.Any("error", err))
	}
	return nil
}

func (h *imageHandler) DeleteImage(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "imageId")
	if err != nil {
		return err
	}

	if err := h.imageSvc.DeleteImage(r.Context(), id); err != nil {
		return fmt.Errorf("image service delete image: %w", err)
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
