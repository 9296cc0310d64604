package store

import (
	"database/sql"
	"time"

	"github.com/neststash/neststash/internal/model"
)

// ItemStore persists inventory items. It is the single source of truth;
// the in-memory cache is derived from it and rebuilt on demand.
type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

const itemCols = `id, name, category, shop, price, notes, photo, date_added`

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	err := scanner.Scan(
		&item.ID, &item.Name, &item.Category, &item.Shop,
		&item.Price, &item.Notes, &item.Photo, &item.DateAdded,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new item and returns it with its assigned id.
// DateAdded is set to the insert time when the caller left it zero.
func (s *ItemStore) Create(item model.Item) (*model.Item, error) {
	if item.DateAdded.IsZero() {
		item.DateAdded = time.Now().UTC()
	}
	result, err := s.db.Exec(
		`INSERT INTO items (name, category, shop, price, notes, photo, date_added) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.Name, item.Category, item.Shop, item.Price, item.Notes, item.Photo, item.DateAdded,
	)
	if err != nil {
		return nil, storageErr("insert item", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageErr("last insert id", err)
	}
	return s.GetByID(id)
}

func (s *ItemStore) GetByID(id int64) (*model.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get item", err)
	}
	return item, nil
}

func (s *ItemStore) GetAll() ([]model.Item, error) {
	rows, err := s.db.Query(`SELECT ` + itemCols + ` FROM items ORDER BY id ASC`)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scan item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list items", err)
	}
	return items, nil
}

// Update replaces every field of the item except id and date_added.
// Two in-flight updates to the same id resolve last-write-wins; that is
// the accepted policy for a single-user tool, not a defect.
func (s *ItemStore) Update(item model.Item) (*model.Item, error) {
	result, err := s.db.Exec(
		`UPDATE items SET name = ?, category = ?, shop = ?, price = ?, notes = ?, photo = ? WHERE id = ?`,
		item.Name, item.Category, item.Shop, item.Price, item.Notes, item.Photo, item.ID,
	)
	if err != nil {
		return nil, storageErr("update item", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, storageErr("rows affected", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(item.ID)
}

// Delete removes an item. Deleting a missing id is a no-op.
func (s *ItemStore) Delete(id int64) error {
	if _, err := s.db.Exec(`DELETE FROM items WHERE id = ?`, id); err != nil {
		return storageErr("delete item", err)
	}
	return nil
}

// Clear empties the entire items table.
func (s *ItemStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM items`); err != nil {
		return storageErr("clear items", err)
	}
	return nil
}

func (s *ItemStore) Count() (int, error) {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, storageErr("count items", err)
	}
	return count, nil
}
