// internal/adapters/db/item_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/greencycle-be/internal/core/domain"
	"github.com/ammerola/greencycle-be/internal/core/ports"
)

const itemsTable = "items"

var itemColumns = []string{
	"id", "seller_id", "title", "description", "category", "kind",
	"price", "original_price", "status", "distance_km", "location",
	"views", "likes", "images", "created_at", "updated_at", "deleted_at",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// itemRepository implements ports.ItemRepository
type itemRepository struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.ItemRepository = (*itemRepository)(nil)

// NewItemRepository creates a new item repository
func NewItemRepository(db *Database, logger *slog.Logger) ports.ItemRepository {
	return &itemRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "items")),
	}
}

// Save creates a new item
func (r *itemRepository) Save(ctx context.Context, item *domain.Item) error {
	query, args, err := insertQuery(item).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	r.logger.DebugContext(ctx, "item saved", slog.String("id", item.ID.String()))
	return nil
}

// SaveBatch inserts items in one transaction
func (r *itemRepository) SaveBatch(ctx context.Context, items []domain.Item) error {
	if len(items) == 0 {
		return nil
	}

	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i := range items {
			query, args, err := insertQuery(&items[i]).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build insert %d: %w", i, err)
			}
			batch.Queue(query, args...)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for i := range items {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to save item %d: %w", i, err)
			}
		}
		return nil
	})
}

// Update replaces the stored fields of a live item
func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query, args, err := updateQuery(item).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, item.ID)
	}

	r.logger.DebugContext(ctx, "item updated", slog.String("id", item.ID.String()))
	return nil
}

// FindByID retrieves a live item; it returns nil, nil when none matches
func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query, args, err := selectItems().Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	item, err := ScanOne(r.db.QueryRow(ctx, query, args...), scanItem)
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return item, nil
}

// ListAll returns the live items of kind in insertion order
func (r *itemRepository) ListAll(ctx context.Context, kind domain.Kind) ([]domain.Item, error) {
	query, args, err := listQuery(kind).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	items, err := ScanMany(rows, scanItem)
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}
	return items, nil
}

// Delete performs a hard delete
func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args, err := psql.Delete(itemsTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	r.logger.InfoContext(ctx, "item deleted", slog.String("id", id.String()))
	return nil
}

// SoftDelete marks an item as deleted
func (r *itemRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	query, args, err := psql.Update(itemsTable).
		Set("deleted_at", now).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build soft delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to soft delete item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	r.logger.InfoContext(ctx, "item soft deleted", slog.String("id", id.String()))
	return nil
}

// IncrementLikes bumps the like counter and returns the new value
func (r *itemRepository) IncrementLikes(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.increment(ctx, id, "likes")
}

// IncrementViews bumps the view counter and returns the new value
func (r *itemRepository) IncrementViews(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.increment(ctx, id, "views")
}

func (r *itemRepository) increment(ctx context.Context, id uuid.UUID, column string) (int64, error) {
	query, args, err := counterQuery(id, column).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build %s update: %w", column, err)
	}

	var n int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return 0, fmt.Errorf("failed to increment %s: %w", column, err)
	}
	return n, nil
}

// AddImage appends an image URL to the item gallery
func (r *itemRepository) AddImage(ctx context.Context, id uuid.UUID, url string) error {
	query, args, err := psql.Update(itemsTable).
		Set("images", squirrel.Expr("array_append(images, ?)", url)).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build image update: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to add image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

// Count returns the number of live items
func (r *itemRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := psql.Select("COUNT(*)").From(itemsTable).Where(squirrel.Eq{"deleted_at": nil}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// Truncate removes every item; used by the seeder
func (r *itemRepository) Truncate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, "TRUNCATE TABLE "+itemsTable); err != nil {
		return fmt.Errorf("failed to truncate items: %w", err)
	}
	r.logger.WarnContext(ctx, "items table truncated")
	return nil
}

func selectItems() squirrel.SelectBuilder {
	return psql.Select(itemColumns...).From(itemsTable).Where(squirrel.Eq{"deleted_at": nil})
}

// listQuery keeps insertion order so the engine sees the catalog as loaded
func listQuery(kind domain.Kind) squirrel.SelectBuilder {
	qb := selectItems()
	if kind != "" {
		qb = qb.Where(squirrel.Eq{"kind": kind})
	}
	return qb.OrderBy("created_at ASC", "id ASC")
}

func insertQuery(item *domain.Item) squirrel.InsertBuilder {
	images := item.Images
	if images == nil {
		images = []string{}
	}
	return psql.Insert(itemsTable).
		Columns(itemColumns[:len(itemColumns)-1]...).
		Values(
			item.ID, item.SellerID, item.Title, item.Description, string(item.Category), string(item.Kind),
			item.Price, item.OriginalPrice, string(item.Status), item.DistanceKm, item.Location,
			item.Views, item.Likes, images, item.CreatedAt, item.UpdatedAt,
		)
}

func updateQuery(item *domain.Item) squirrel.UpdateBuilder {
	images := item.Images
	if images == nil {
		images = []string{}
	}
	return psql.Update(itemsTable).SetMap(map[string]any{
		"seller_id":      item.SellerID,
		"title":          item.Title,
		"description":    item.Description,
		"category":       string(item.Category),
		"kind":           string(item.Kind),
		"price":          item.Price,
		"original_price": item.OriginalPrice,
		"status":         string(item.Status),
		"distance_km":    item.DistanceKm,
		"location":       item.Location,
		"images":         images,
		"updated_at":     item.UpdatedAt,
	}).Where(squirrel.Eq{"id": item.ID, "deleted_at": nil})
}

func counterQuery(id uuid.UUID, column string) squirrel.UpdateBuilder {
	return psql.Update(itemsTable).
		Set(column, squirrel.Expr(column+" + 1")).
		Where(squirrel.Eq{"id": id, "deleted_at": nil}).
		Suffix("RETURNING " + column)
}

func scanItem(row pgx.Row) (*domain.Item, error) {
	var (
		item                   domain.Item
		category, kind, status string
	)
	err := row.Scan(
		&item.ID, &item.SellerID, &item.Title, &item.Description, &category, &kind,
		&item.Price, &item.OriginalPrice, &status, &item.DistanceKm, &item.Location,
		&item.Views, &item.Likes, &item.Images, &item.CreatedAt, &item.UpdatedAt, &item.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Category = domain.Category(category)
	item.Kind = domain.Kind(kind)
	item.Status = domain.Status(status)
	return &item, nil
}
