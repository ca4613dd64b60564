package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"marketplace-chat-service/internal/apperrors"
	"marketplace-chat-service/internal/models"
	"marketplace-chat-service/internal/repositories"
	"marketplace-chat-service/internal/storage"
)

// Items is the listing operation set exposed to the transport layer.
type Items interface {
	CreateItem(ctx context.Context, ownerID int, title, description string, images []ImageUpload) (models.Item, error)
	GetItem(ctx context.Context, itemID int) (models.Item, error)
}

// ImageUpload is one image attached to a new listing.
type ImageUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ItemService manages marketplace listings and their images. Image bytes go
// straight through the Uploader; only URLs are persisted.
type ItemService struct {
	itemRepo repositories.ItemRepository
	uploader storage.Uploader
	logger   *zap.Logger
}

// NewItemService constructs an ItemService.
func NewItemService(itemRepo repositories.ItemRepository, uploader storage.Uploader, logger *zap.Logger) *ItemService {
	return &ItemService{itemRepo: itemRepo, uploader: uploader, logger: logger}
}

// CreateItem uploads the listing images and stores the listing. When the
// insert fails, already uploaded images are removed again.
func (s *ItemService) CreateItem(ctx context.Context, ownerID int, title, description string, images []ImageUpload) (models.Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Item{}, fmt.Errorf("%w: title must not be empty", apperrors.ErrInvalidInput)
	}
	if len(images) > 0 && s.uploader == nil {
		return models.Item{}, fmt.Errorf("%w: image uploads are not configured", apperrors.ErrInvalidInput)
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		key := "items/" + uuid.NewString() + strings.ToLower(path.Ext(img.Filename))
		url, err := s.uploader.Upload(ctx, key, img.ContentType, img.Body)
		if err != nil {
			s.cleanup(ctx, urls)
			return models.Item{}, fmt.Errorf("upload image: %w", err)
		}
		urls = append(urls, url)
	}

	item, err := s.itemRepo.Create(ctx, ownerID, title, strings.TrimSpace(description), urls)
	if err != nil {
		s.cleanup(ctx, urls)
		return models.Item{}, err
	}
	return item, nil
}

// GetItem fetches one listing.
func (s *ItemService) GetItem(ctx context.Context, itemID int) (models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			return models.Item{}, fmt.Errorf("%w: item %d", apperrors.ErrNotFound, itemID)
		}
		return models.Item{}, err
	}
	return item, nil
}

func (s *ItemService) cleanup(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.uploader.Delete(ctx, url); err != nil {
			s.logger.Warn("orphaned upload not deleted", zap.String("url", url), zap.Error(err))
		}
	}
}
