package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

func (d *Database) InsertMenuItem(item *MenuItem) error {
	item.ID = uuid.NewString()
	item.CreatedAt = d.now().UTC()

	query := `
		INSERT INTO menu_items (id, name, description, price, category, image_url, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.db.Exec(query, item.ID, item.Name, item.Description, item.Price, item.Category, item.ImageURL, toMillis(item.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert menu item: %w", err)
	}
	return nil
}

// GetMenuItems returns the menu grouped by category, oldest item first.
func (d *Database) GetMenuItems() ([]MenuItem, error) {
	query := `
		SELECT id, name, description, price, category, image_url, created_at
		FROM menu_items
		ORDER BY CASE category
			WHEN 'Cafés' THEN 0
			WHEN 'Salgados' THEN 1
			WHEN 'Doces' THEN 2
			WHEN 'Bebidas' THEN 3
			ELSE 4
		END, created_at ASC, name ASC
	`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var item MenuItem
		var created int64
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Category, &item.ImageURL, &created); err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		item.CreatedAt = fromMillis(created)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return items, nil
}

func (d *Database) GetMenuItem(id string) (*MenuItem, error) {
	query := `SELECT id, name, description, price, category, image_url, created_at FROM menu_items WHERE id = ?`
	var item MenuItem
	var created int64
	err := d.db.QueryRow(query, id).Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Category, &item.ImageURL, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("menu item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	item.CreatedAt = fromMillis(created)
	return &item, nil
}

func (d *Database) GetMenuItemCount() (int, error) {
	var count int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get menu item count: %w", err)
	}
	return count, nil
}

func (d *Database) UpdateMenuItem(item *MenuItem) error {
	query := `
		UPDATE menu_items
		SET name = ?, description = ?, price = ?, category = ?, image_url = ?
		WHERE id = ?
	`
	result, err := d.db.Exec(query, item.Name, item.Description, item.Price, item.Category, item.ImageURL, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	return checkAffected(result, "menu item", item.ID)
}

func (d *Database) DeleteMenuItem(id string) error {
	result, err := d.db.Exec(`DELETE FROM menu_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	return checkAffected(result, "menu item", id)
}
