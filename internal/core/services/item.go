// internal/core/services/item.go
package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

const batchSize = 100

// ItemService handles listing lifecycle business logic
type ItemService struct {
	repo    ports.ItemRepository
	catalog ports.CatalogSource
	images  ports.ImageStore
	logger  *slog.Logger
}

var _ ports.ItemService = (*ItemService)(nil)

// NewItemService creates a new item service. images may be nil when photo
// uploads are disabled.
func NewItemService(repo ports.ItemRepository, catalog ports.CatalogSource, images ports.ImageStore, logger *slog.Logger) *ItemService {
	return &ItemService{
		repo:    repo,
		catalog: catalog,
		images:  images,
		logger:  logger.With(slog.String("service", "item")),
	}
}

// Create validates and saves a single item
func (s *ItemService) Create(ctx context.Context, item *domain.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	item.PrepareForStorage()

	if err := s.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "created item",
		slog.String("id", item.ID.String()),
		slog.String("title", item.Title),
		slog.String("kind", string(item.Kind)))

	return nil
}

// CreateBatch validates every item first, then saves in chunks
func (s *ItemService) CreateBatch(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		s.logger.InfoContext(ctx, "no items to save")
		return nil
	}

	for i := range items {
		if err := items[i].Validate(); err != nil {
			return fmt.Errorf("%w: item %q: %w", domain.ErrValidation, items[i].Title, err)
		}
		items[i].PrepareForStorage()
	}

	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))
		if err := s.repo.SaveBatch(ctx, items[start:end]); err != nil {
			return fmt.Errorf("failed to save batch %d-%d: %w", start, end, err)
		}
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "saved items", slog.Int("count", len(items)))
	return nil
}

// Get returns a live item and counts the view. The snapshot is left alone,
// so listing view counts trail by at most the snapshot TTL.
func (s *ItemService) Get(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	views, err := s.repo.IncrementViews(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record view",
			slog.String("id", id.String()),
			slog.String("error", err.Error()))
		return item, nil
	}
	item.Views = views
	return item, nil
}

// Update replaces the editable fields of an item
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, item *domain.Item) error {
	current, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	item.ID = id
	item.CreatedAt = current.CreatedAt
	item.Views = current.Views
	item.Likes = current.Likes
	if item.Images == nil {
		item.Images = current.Images
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	item.PrepareForStorage()

	if err := s.repo.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "updated item", slog.String("id", id.String()))
	return nil
}

// Delete removes an item (soft delete by default)
func (s *ItemService) Delete(ctx context.Context, id uuid.UUID, permanent bool) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	var err error
	if permanent {
		err = s.repo.Delete(ctx, id)
	} else {
		err = s.repo.SoftDelete(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "deleted item",
		slog.String("id", id.String()),
		slog.Bool("permanent", permanent))

	return nil
}

// Like increments the like counter and returns the new total
func (s *ItemService) Like(ctx context.Context, id uuid.UUID) (int64, error) {
	likes, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to like item: %w", err)
	}
	s.invalidate(ctx)
	return likes, nil
}

// AttachImage uploads a photo and appends its URL to the item
func (s *ItemService) AttachImage(ctx context.Context, id uuid.UUID, filename, contentType string, body io.Reader) (string, error) {
	if s.images == nil {
		return "", fmt.Errorf("image storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: unsupported content type %q", domain.ErrValidation, contentType)
	}
	if _, err := s.find(ctx, id); err != nil {
		return "", err
	}

	key := ImageKey(id, filename)
	url, err := s.images.Upload(ctx, key, body, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	if err := s.repo.AddImage(ctx, id, url); err != nil {
		if delErr := s.images.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned image",
				slog.String("key", key),
				slog.String("error", delErr.Error()))
		}
		return "", fmt.Errorf("failed to attach image: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "attached image",
		slog.String("id", id.String()),
		slog.String("key", key))

	return url, nil
}

// ImageKey builds the object key for an item photo
func ImageKey(id uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("items/%s/%s%s", id, uuid.NewString(), ext)
}

func (s *ItemService) find(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return item, nil
}

func (s *ItemService) invalidate(ctx context.Context) {
	if err := s.catalog.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate catalog snapshot",
			slog.String("error", err.Error()))
	}
}
