package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

func (d *Database) GetAppSettings() (*AppSettings, error) {
	const query = `
		SELECT rotation_interval_ms,
		       fade_ms
		FROM app_settings
		WHERE singleton = 1
	`

	var settings AppSettings
	err := d.db.QueryRow(query).Scan(&settings.RotationIntervalMillis, &settings.FadeMillis)
	if errors.Is(err, sql.ErrNoRows) {
		// Bootstrap defaults if no settings row exists yet
		defaults := DefaultAppSettings()
		if err := d.UpsertAppSettings(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get app settings: %w", err)
	}
	return &settings, nil
}

func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		RotationIntervalMillis: 3000,
		FadeMillis:             500,
	}
}

// EnsureAppSettings stores s unless settings already exist, and returns the
// stored settings.
func (d *Database) EnsureAppSettings(s *AppSettings) (*AppSettings, error) {
	const stmt = `
		INSERT INTO app_settings (
			singleton,
			rotation_interval_ms,
			fade_ms
		) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO NOTHING
	`

	if _, err := d.db.Exec(stmt, s.RotationIntervalMillis, s.FadeMillis); err != nil {
		return nil, fmt.Errorf("ensure app settings: %w", err)
	}
	return d.GetAppSettings()
}

func (d *Database) UpsertAppSettings(s *AppSettings) error {
	const stmt = `
		INSERT INTO app_settings (
			singleton,
			rotation_interval_ms,
			fade_ms
		) VALUES (1, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			rotation_interval_ms = excluded.rotation_interval_ms,
			fade_ms              = excluded.fade_ms
	`

	if _, err := d.db.Exec(stmt, s.RotationIntervalMillis, s.FadeMillis); err != nil {
		return fmt.Errorf("upsert app settings: %w", err)
	}
	return nil
}

func (d *Database) GetSchedule() (*Schedule, error) {
	const query = `
		SELECT enabled,
		       start,
		       end
		FROM schedule
		WHERE singleton = 1
	`

	var enabled bool
	var start, end string

	err := d.db.QueryRow(query).Scan(&enabled, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		// Bootstrap defaults if no schedule row exists yet
		defaults := &Schedule{
			Enabled: true,
			Start:   "08:00",
			End:     "20:00",
		}
		if err := d.UpsertSchedule(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get schedule: %w", err)
	}

	return &Schedule{
		Enabled: enabled,
		Start:   start,
		End:     end,
	}, nil
}

func (d *Database) UpsertSchedule(s *Schedule) error {
	const stmt = `
		INSERT INTO schedule (
			singleton,
			enabled,
			start,
			end
		) VALUES (1, ?, ?, ?)
		ON CONFLICT(singleton) DO UPDATE SET
			enabled = excluded.enabled,
			start   = excluded.start,
			end     = excluded.end
	`

	if _, err := d.db.Exec(stmt, boolToInt(s.Enabled), s.Start, s.End); err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}
	return nil
}

// GetSiteContent returns the editable site copy, writing the defaults on
// first use.
func (d *Database) GetSiteContent() (*SiteContent, error) {
	var body string
	err := d.db.QueryRow(`SELECT body FROM site_content WHERE singleton = 1`).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		defaults := DefaultSiteContent()
		if err := d.UpsertSiteContent(defaults); err != nil {
			return nil, err
		}
		return defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get site content: %w", err)
	}

	var content SiteContent
	if err := json.Unmarshal([]byte(body), &content); err != nil {
		return nil, fmt.Errorf("decode site content: %w", err)
	}
	return &content, nil
}

func (d *Database) UpsertSiteContent(c *SiteContent) error {
	body, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode site content: %w", err)
	}

	const stmt = `
		INSERT INTO site_content (singleton, body) VALUES (1, ?)
		ON CONFLICT(singleton) DO UPDATE SET body = excluded.body
	`
	if _, err := d.db.Exec(stmt, string(body)); err != nil {
		return fmt.Errorf("upsert site content: %w", err)
	}
	return nil
}
