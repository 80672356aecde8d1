package store

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver for gorm

	"github.com/codeGROOVE-dev/scran/pkg/profile"
)

// StringList is a []string stored as a JSON text column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan StringList: unsupported type %T", src)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, (*[]string)(l))
}

// GuildImages is one (guild, network) row.
type GuildImages struct {
	GuildID   string          `gorm:"primary_key;size:32"`
	Network   profile.Network `gorm:"primary_key;size:16"`
	Profile   string          `gorm:"size:64;not null;default:''"`
	Images    StringList      `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName sets the table name.
func (GuildImages) TableName() string { return "guild_images" }

// SQL is a Store on a SQLite database.
type SQL struct {
	db *gorm.DB
}

// OpenSQL opens (creating if needed) the SQLite database at path and migrates the schema.
func OpenSQL(path string, logger *slog.Logger) (*SQL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if logger != nil {
		db.SetLogger(gormLogger{logger})
		db.LogMode(logger.Enabled(context.Background(), slog.LevelDebug))
	}

	if err := db.AutoMigrate(&GuildImages{}).Error; err != nil {
		db.Close() //nolint:errcheck,gosec // already failing
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQL{db: db}, nil
}

// Profile implements Store.
func (s *SQL) Profile(_ context.Context, guild string, network profile.Network) (string, error) {
	row, err := s.row(guild, network)
	if err != nil || row == nil {
		return "", err
	}
	return row.Profile, nil
}

// SetProfile implements Store.
func (s *SQL) SetProfile(_ context.Context, guild string, network profile.Network, name string) error {
	return s.upsert(guild, network, map[string]any{"profile": name})
}

// Images implements Store.
func (s *SQL) Images(_ context.Context, guild string, network profile.Network) ([]string, error) {
	row, err := s.row(guild, network)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return []string{}, nil
	}
	return append([]string{}, row.Images...), nil
}

// SetImages implements Store.
func (s *SQL) SetImages(_ context.Context, guild string, network profile.Network, urls []string) error {
	return s.upsert(guild, network, map[string]any{"images": StringList(urls)})
}

// Guilds implements Store.
func (s *SQL) Guilds(_ context.Context, network profile.Network) ([]string, error) {
	var ids []string
	err := s.db.Model(&GuildImages{}).
		Where("network = ? AND profile <> ''", network).
		Order("guild_id").
		Pluck("guild_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	return ids, nil
}

// Close implements Store.
func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) row(guild string, network profile.Network) (*GuildImages, error) {
	var row GuildImages
	err := s.db.Where("guild_id = ? AND network = ?", guild, network).First(&row).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, nil //nolint:nilnil // missing row means defaults
	}
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", guild, network, err)
	}
	return &row, nil
}

func (s *SQL) upsert(guild string, network profile.Network, attrs map[string]any) error {
	var row GuildImages
	err := s.db.Where(GuildImages{GuildID: guild, Network: network}).
		Assign(attrs).
		FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("save %s/%s: %w", guild, network, err)
	}
	return nil
}

// gormLogger routes gorm's query log into slog at debug level.
type gormLogger struct {
	logger *slog.Logger
}

func (l gormLogger) Print(values ...any) {
	l.logger.Debug("sql", "values", fmt.Sprint(values...))
}
