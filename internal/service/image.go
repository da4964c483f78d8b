package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/catalog-service/internal/apperr"
	"github.com/tuanvumaihuynh/catalog-service/internal/model"
	"github.com/tuanvumaihuynh/catalog-service/internal/repository"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/db"
	"github.com/tuanvumaihuynh/catalog-service/internal/storage/objectstore"
	"github.com/tuanvumaihuynh/catalog-service/pkg/validator"
)

type UploadImageParams struct {
	Filename    string `validate:"required,notblank,max=255"`
	ContentType string `validate:"required,max=255"`
	Size        int64  `validate:"gt=0"`
	Primary     bool
	Body        io.Reader
}

type ImageService interface {
	UploadImage(ctx context.Context, productID uuid.UUID, params UploadImageParams) (model.ProductImage, error)
	// DownloadImage returns the image metadata and its blob. Callers must
	// close the blob body.
	DownloadImage(ctx context.Context, id uuid.UUID) (model.ProductImage, objectstore.Object, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error
}

type imageService struct {
	logger      *slog.Logger
	db          db.DB
	validator   validator.Validator
	store       objectstore.Store
	productRepo repository.ProductRepository
	imageRepo   repository.ImageRepository
}

func NewImageService(
	logger *slog.Logger,
	db db.DB,
	validator validator.Validator,
	store objectstore.Store,
	productRepo repository.ProductRepository,
	imageRepo repository.ImageRepository,
) ImageService {
	return &imageService{
		logger:      logger.With(slog.String("service", "image")),
		db:          db,
		validator:   validator,
		store:       store,
		productRepo: productRepo,
		imageRepo:   imageRepo,
	}
}

// UploadImage stores the blob first and its metadata second. The blob is
// removed again when the metadata cannot be stored.
func (s *imageService) UploadImage(ctx context.Context, productID uuid.UUID, params UploadImageParams) (model.ProductImage, error) {
	if err := validate(s.validator, params); err != nil {
		return model.ProductImage{}, err
	}
	if params.Body == nil {
		return model.ProductImage{}, apperr.ValidationErr.WithMsg("image body is required")
	}

	if err := requireProduct(ctx, s.productRepo, productID); err != nil {
		return model.ProductImage{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.ProductImage{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	key := imageKey(productID, id, params.Filename)
	if err := s.store.Put(ctx, key, params.Body, params.Size, params.ContentType); err != nil {
		return model.ProductImage{}, fmt.Errorf("object store put: %w", err)
	}

	image := model.ProductImage{
		ID:        id,
		ProductID: productID,
		Key:       key,
		URL:       s.store.URL(key),
		Primary:   params.Primary,
		CreatedAt: time.Now(),
	}

	if err := s.imageRepo.CreateImage(ctx, image); err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			s.logger.WarnContext(ctx, "error removing blob of failed upload",
				slog.String("key", key),
				slog.Any("error", delErr),
			)
		}
		return model.ProductImage{}, fmt.Errorf("image repository create image: %w", err)
	}

	return image, nil
}

func (s *imageService) DownloadImage(ctx context.Context, id uuid.UUID) (model.ProductImage, objectstore.Object, error) {
	image, err := s.imageRepo.GetImage(ctx, id)
	if err != nil {
		return model.ProductImage{}, objectstore.Object{}, fmt.Errorf("image repository get image: %w", err)
	}

	obj, err := s.store.Get(ctx, image.Key)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			return model.ProductImage{}, objectstore.Object{}, apperr.ImageNotFoundErr.WrapParent(err)
		}
		return model.ProductImage{}, objectstore.Object{}, fmt.Errorf("object store get: %w", err)
	}

	return image, obj, nil
}

// DeleteImage removes the metadata and the blob. The metadata deletion is
// rolled back when the blob cannot be removed; a blob that is already gone
// is not an error.
func (s *imageService) DeleteImage(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		image, err := s.imageRepo.WithDB(db).DeleteImage(ctx, id)
		if err != nil {
			return fmt.Errorf("image repository delete image: %w", err)
		}

		if err := s.store.Delete(ctx, image.Key); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
			return fmt.Errorf("object store delete: %w", err)
		}
		return nil
	}); err != nil {
		return fmt.Errorf("db with tx: %w", err)
	}

	return nil
}

func imageKey(productID, imageID uuid.UUID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		name = "image"
	}
	return fmt.Sprintf("products/%s/%s-%s", productID, imageID, name)
}
