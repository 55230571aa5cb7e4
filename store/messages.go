package store

import (
	"fmt"

	"github.com/google/uuid"
)

func (d *Database) InsertContactMessage(m *ContactMessage) error {
	m.ID = uuid.NewString()
	m.Read = false
	m.SubmittedAt = d.now().UTC()

	query := `INSERT INTO contact_messages (id, name, email, message, read, submitted_at) VALUES (?, ?, ?, ?, 0, ?)`
	_, err := d.db.Exec(query, m.ID, m.Name, m.Email, m.Message, toMillis(m.SubmittedAt))
	if err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

// GetContactMessages returns messages, newest first.
func (d *Database) GetContactMessages() ([]ContactMessage, error) {
	query := `
		SELECT id, name, email, message, read, submitted_at
		FROM contact_messages
		ORDER BY submitted_at DESC
	`
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact messages: %w", err)
	}
	defer rows.Close()

	var messages []ContactMessage
	for rows.Next() {
		var m ContactMessage
		var read int
		var submitted int64
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &read, &submitted); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		m.Read = read != 0
		m.SubmittedAt = fromMillis(submitted)
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return messages, nil
}

func (d *Database) MarkContactMessageRead(id string, read bool) error {
	result, err := d.db.Exec(`UPDATE contact_messages SET read = ? WHERE id = ?`, boolToInt(read), id)
	if err != nil {
		return fmt.Errorf("failed to update contact message: %w", err)
	}
	return checkAffected(result, "contact message", id)
}

func (d *Database) DeleteContactMessage(id string) error {
	result, err := d.db.Exec(`DELETE FROM contact_messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact message: %w", err)
	}
	return checkAffected(result, "contact message", id)
}
