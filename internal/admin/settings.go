// Copyright (c) 2026 Scriptorium Divinum. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/scriptorium/internal/catalog"
	"github.com/taibuivan/scriptorium/internal/platform/database/schema"
	"github.com/taibuivan/scriptorium/internal/platform/dberr"
	"github.com/taibuivan/scriptorium/internal/platform/validate"
)

// Settings sections.
const (
	SectionSite    = "site"
	SectionSystem  = "system"
	SectionContent = "content"
)

// Settings is one section of the settings panel.
type Settings interface {
	validate(v *validate.Validator)
}

// SiteSettings is the "site" section.
type SiteSettings struct {
	SiteName           string `json:"siteName"`
	SiteDescription    string `json:"siteDescription"`
	ContactEmail       string `json:"contactEmail"`
	MaintenanceMode    bool   `json:"maintenanceMode"`
	AllowRegistrations bool   `json:"allowRegistrations"`
	FeaturedBooksCount int    `json:"featuredBooksCount"`
	BooksPerPage       int    `json:"booksPerPage"`
}

func (settings *SiteSettings) validate(v *validate.Validator) {
	v.Required("siteName", settings.SiteName).
		MaxLen("siteName", settings.SiteName, 120).
		MaxLen("siteDescription", settings.SiteDescription, 500).
		Email("contactEmail", settings.ContactEmail).
		Range("featuredBooksCount", settings.FeaturedBooksCount, 1, 50).
		Range("booksPerPage", settings.BooksPerPage, 1, 100)
}

// SystemSettings is the "system" section.
type SystemSettings struct {
	EnableCache     bool   `json:"enableCache"`
	CacheExpiration int    `json:"cacheExpiration"`
	EnableAnalytics bool   `json:"enableAnalytics"`
	AnalyticsID     string `json:"analyticsId"`
	BackupFrequency string `json:"backupFrequency"`
	LogLevel        string `json:"logLevel"`
}

func (settings *SystemSettings) validate(v *validate.Validator) {
	v.Range("cacheExpiration", settings.CacheExpiration, 0, 86400).
		OneOf("backupFrequency", settings.BackupFrequency, "hourly", "daily", "weekly", "monthly").
		OneOf("logLevel", settings.LogLevel, "debug", "info", "warn", "error").
		Custom("analyticsId", settings.EnableAnalytics && settings.AnalyticsID == "", "Required when analytics is enabled")
}

// ContentSettings is the "content" section.
type ContentSettings struct {
	AutoApproveBooks    bool           `json:"autoApproveBooks"`
	AllowGuestComments  bool           `json:"allowGuestComments"`
	ModerateComments    bool           `json:"moderateComments"`
	EnableDownloads     bool           `json:"enableDownloads"`
	EnableOnlineReading bool           `json:"enableOnlineReading"`
	DefaultBookFormat   catalog.Format `json:"defaultBookFormat"`
}

func (settings *ContentSettings) validate(v *validate.Validator) {
	v.Custom("defaultBookFormat", !settings.DefaultBookFormat.Valid(), "Must be one of the download formats")
}

// DefaultSettings returns the built-in values of section, or nil for an
// unknown section.
func DefaultSettings(section string) Settings {
	switch section {
	case SectionSite:
		return &SiteSettings{
			SiteName:           "Scriptorium Divinum",
			SiteDescription:    "Biblioteca digital de obras teológicas em domínio público",
			ContactEmail:       "contato@scriptorium-divinum.com",
			AllowRegistrations: true,
			FeaturedBooksCount: 6,
			BooksPerPage:       20,
		}
	case SectionSystem:
		return &SystemSettings{
			EnableCache:     true,
			CacheExpiration: 300,
			BackupFrequency: "daily",
			LogLevel:        "info",
		}
	case SectionContent:
		return &ContentSettings{
			ModerateComments:    true,
			EnableDownloads:     true,
			EnableOnlineReading: true,
			DefaultBookFormat:   catalog.FormatPDF,
		}
	}
	return nil
}

// SettingsStore keeps one JSON document per section.
type SettingsStore interface {

	// Load returns the stored document, or nil when the section was never saved.
	Load(ctx context.Context, section string) ([]byte, error)

	Save(ctx context.Context, section string, value []byte, updatedBy string) error
}

// # PostgreSQL

var settingTable = schema.SystemSetting

// PostgresSettingsStore implements [SettingsStore] on system.setting.
type PostgresSettingsStore struct {
	db *pgxpool.Pool
}

func NewPostgresSettingsStore(pool *pgxpool.Pool) *PostgresSettingsStore {
	return &PostgresSettingsStore{db: pool}
}

func (store *PostgresSettingsStore) Load(ctx context.Context, section string) ([]byte, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, settingTable.Value, settingTable.Table, settingTable.Key)

	var value []byte
	if err := store.db.QueryRow(ctx, query, section).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "load_settings")
	}
	return value, nil
}

func (store *PostgresSettingsStore) Save(ctx context.Context, section string, value []byte, updatedBy string) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s, %[5]s) VALUES ($1, $2, $3, NOW())
		ON CONFLICT (%[2]s) DO UPDATE
		SET %[3]s = EXCLUDED.%[3]s, %[4]s = EXCLUDED.%[4]s, %[5]s = NOW()`,
		settingTable.Table, settingTable.Key, settingTable.Value, settingTable.UpdatedBy, settingTable.UpdatedAt,
	)

	if _, err := store.db.Exec(ctx, query, section, value, updatedBy); err != nil {
		return dberr.WrapWrite(err, "save_settings", dberr.Constraints{
			"setting_key_check": "Unknown settings section",
		})
	}
	return nil
}

// # Memory

// MemorySettingsStore is an in-process [SettingsStore].
type MemorySettingsStore struct {
	mu     sync.RWMutex
	values map[string][]byte
}

func NewMemorySettingsStore() *MemorySettingsStore {
	return &MemorySettingsStore{values: make(map[string][]byte)}
}

func (store *MemorySettingsStore) Load(_ context.Context, section string) ([]byte, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.values[section], nil
}

func (store *MemorySettingsStore) Save(_ context.Context, section string, value []byte, _ string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.values[section] = append([]byte(nil), value...)
	return nil
}

// decodeSettings overlays raw on the defaults of section.
func decodeSettings(section string, raw []byte) (Settings, error) {
	settings := DefaultSettings(section)
	if settings == nil {
		return nil, nil
	}
	if raw == nil {
		return settings, nil
	}
	if err := json.Unmarshal(raw, settings); err != nil {
		return nil, fmt.Errorf("decode %s settings: %w", section, err)
	}
	return settings, nil
}
