package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace-chat-service/internal/models"
)

var ErrItemNotFound = errors.New("item not found")

// ItemRepository abstracts listing persistence.
type ItemRepository interface {
	Create(ctx context.Context, ownerID int, title, description string, imageURLs []string) (models.Item, error)
	GetByID(ctx context.Context, itemID int) (models.Item, error)
	BulkByIDs(ctx context.Context, ids []int) ([]models.Item, error)
}

// ItemRepo is a sqlx implementation of ItemRepository.
type ItemRepo struct {
	db *sqlx.DB
}

// NewItemRepo constructs an ItemRepo.
func NewItemRepo(db *sqlx.DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// Create inserts a new listing.
func (r *ItemRepo) Create(ctx context.Context, ownerID int, title, description string, imageURLs []string) (models.Item, error) {
	var item models.Item
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO items (owner_id, title, description, image_urls) VALUES ($1, $2, $3, $4)
        RETURNING id, owner_id, title, description, image_urls, created_at`,
		ownerID, title, description, pq.Array(imageURLs)).StructScan(&item)
	return item, err
}

// GetByID fetches a listing by id.
func (r *ItemRepo) GetByID(ctx context.Context, itemID int) (models.Item, error) {
	var item models.Item
	err := r.db.GetContext(ctx, &item,
		`SELECT id, owner_id, title, description, image_urls, created_at FROM items WHERE id=$1`, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Item{}, ErrItemNotFound
	}
	return item, err
}

// BulkByIDs fetches multiple listings in one query.
func (r *ItemRepo) BulkByIDs(ctx context.Context, ids []int) ([]models.Item, error) {
	if len(ids) == 0 {
		return []models.Item{}, nil
	}
	var items []models.Item
	err := r.db.SelectContext(ctx, &items,
		`SELECT id, owner_id, title, description, image_urls, created_at FROM items WHERE id = ANY($1)`,
		pq.Array(ids))
	return items, err
}
