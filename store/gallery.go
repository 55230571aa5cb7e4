package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const galleryColumns = `id, url, alt, source, object_key, "order", created_at`

// InsertGalleryPhoto appends p to the end of the gallery. ID, Order and
// CreatedAt are assigned here.
func (d *Database) InsertGalleryPhoto(p *GalleryPhoto) error {
	exists, err := d.GalleryPhotoExists(p.URL)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("gallery photo %s: %w", p.URL, ErrConflict)
	}

	order, err := d.NextGalleryOrder()
	if err != nil {
		return err
	}

	p.ID = uuid.NewString()
	p.Order = order
	p.CreatedAt = d.now().UTC()

	query := `INSERT INTO gallery_photos (` + galleryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = d.db.Exec(query, p.ID, p.URL, p.Alt, p.Source, p.ObjectKey, p.Order, toMillis(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert gallery photo: %w", err)
	}
	return nil
}

func scanGalleryPhotos(rows *sql.Rows) ([]GalleryPhoto, error) {
	defer rows.Close()

	var photos []GalleryPhoto
	for rows.Next() {
		var p GalleryPhoto
		var created int64
		if err := rows.Scan(&p.ID, &p.URL, &p.Alt, &p.Source, &p.ObjectKey, &p.Order, &created); err != nil {
			return nil, fmt.Errorf("failed to scan gallery photo: %w", err)
		}
		p.CreatedAt = fromMillis(created)
		photos = append(photos, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return photos, nil
}

// GetGalleryPhotos returns every gallery photo in display order.
func (d *Database) GetGalleryPhotos() ([]GalleryPhoto, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_photos ORDER BY "order" ASC`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery photos: %w", err)
	}
	return scanGalleryPhotos(rows)
}

func (d *Database) GetGalleryPhotosPage(limit int, offset int) ([]GalleryPhoto, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_photos ORDER BY "order" ASC LIMIT ? OFFSET ?`
	rows, err := d.db.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery photos: %w", err)
	}
	return scanGalleryPhotos(rows)
}

func (d *Database) GetGalleryPhotosBySource(source string) ([]GalleryPhoto, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_photos WHERE source = ? ORDER BY "order" ASC`
	rows, err := d.db.Query(query, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query gallery photos: %w", err)
	}
	return scanGalleryPhotos(rows)
}

func (d *Database) GetGalleryPhoto(id string) (*GalleryPhoto, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_photos WHERE id = ?`
	var p GalleryPhoto
	var created int64
	err := d.db.QueryRow(query, id).Scan(&p.ID, &p.URL, &p.Alt, &p.Source, &p.ObjectKey, &p.Order, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("gallery photo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery photo: %w", err)
	}
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

func (d *Database) GetGalleryPhotoByURL(url string) (*GalleryPhoto, error) {
	query := `SELECT ` + galleryColumns + ` FROM gallery_photos WHERE url = ?`
	var p GalleryPhoto
	var created int64
	err := d.db.QueryRow(query, url).Scan(&p.ID, &p.URL, &p.Alt, &p.Source, &p.ObjectKey, &p.Order, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("gallery photo %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery photo: %w", err)
	}
	p.CreatedAt = fromMillis(created)
	return &p, nil
}

func (d *Database) GetGalleryPhotoCount() (int, error) {
	var count int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM gallery_photos`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get gallery photo count: %w", err)
	}
	return count, nil
}

func (d *Database) GalleryPhotoExists(url string) (bool, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM gallery_photos WHERE url = ?`, url).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check gallery photo existence: %w", err)
	}
	return count > 0, nil
}

// NextGalleryOrder returns the order value for a photo appended to the gallery.
func (d *Database) NextGalleryOrder() (int, error) {
	var maxOrder int
	err := d.db.QueryRow(`SELECT COALESCE(MAX("order"), -1) FROM gallery_photos`).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("failed to get max order: %w", err)
	}
	return maxOrder + 1, nil
}

func (d *Database) UpdateGalleryPhotoAlt(id string, alt string) error {
	result, err := d.db.Exec(`UPDATE gallery_photos SET alt = ? WHERE id = ?`, alt, id)
	if err != nil {
		return fmt.Errorf("failed to update gallery photo: %w", err)
	}
	return checkAffected(result, "gallery photo", id)
}

// UpdateGalleryPhotoOrder moves a photo to newOrder, shifting the photos in
// between by one.
func (d *Database) UpdateGalleryPhotoOrder(id string, newOrder int) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldOrder int
	err = tx.QueryRow(`SELECT "order" FROM gallery_photos WHERE id = ?`, id).Scan(&oldOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("gallery photo %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get photo order: %w", err)
	}

	switch {
	case newOrder < oldOrder:
		_, err = tx.Exec(`UPDATE gallery_photos SET "order" = "order" + 1 WHERE "order" >= ? AND "order" < ?`, newOrder, oldOrder)
	case newOrder > oldOrder:
		_, err = tx.Exec(`UPDATE gallery_photos SET "order" = "order" - 1 WHERE "order" > ? AND "order" <= ?`, oldOrder, newOrder)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to shift photo orders: %w", err)
	}

	if _, err := tx.Exec(`UPDATE gallery_photos SET "order" = ? WHERE id = ?`, newOrder, id); err != nil {
		return fmt.Errorf("failed to update photo order: %w", err)
	}
	return tx.Commit()
}

func (d *Database) DeleteGalleryPhoto(id string) error {
	result, err := d.db.Exec(`DELETE FROM gallery_photos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete gallery photo: %w", err)
	}
	return checkAffected(result, "gallery photo", id)
}
