// Package postgis stores places in a PostGIS table and answers box and radius
// queries with the same bounds the in-memory index uses.
package postgis

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/kass/geo-bounds/pkg/geo"
	"github.com/kass/geo-bounds/pkg/models"
)

const (
	tableName = "geo_places"
	batchSize = 10000
)

// Config holds connection settings
type Config struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"ssl_mode" split_words:"true"`
	MaxConnections int    `yaml:"max_connections" split_words:"true"`
}

// DSN returns the lib/pq connection string
func (c Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode)
}

// Store is a PostGIS-backed place table
type Store struct {
	db *sql.DB
}

// Open connects to PostGIS and verifies the connection
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	maxConns := cfg.MaxConnections
	if maxConns <= 0 {
		maxConns = 25
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Store{db: db}, nil
}

// InitSchema (re)creates the places table
func (s *Store) InitSchema(ctx context.Context) error {
	queries := []string{
		`CREATE EXTENSION IF NOT EXISTS postgis`,
		`DROP TABLE IF EXISTS ` + tableName,
		`CREATE TABLE ` + tableName + ` (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			location GEOMETRY(POINT, 4326) NOT NULL
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}

	return nil
}

// CreateSpatialIndex creates a GIST index on the geometry column
func (s *Store) CreateSpatialIndex(ctx context.Context) error {
	query := `CREATE INDEX IF NOT EXISTS idx_` + tableName + `_location ON ` + tableName + ` USING GIST(location)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create spatial index: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `ANALYZE `+tableName); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	return nil
}

// BulkInsertPlaces inserts places in transactions of batchSize rows.
// Places without a location are skipped.
func (s *Store) BulkInsertPlaces(ctx context.Context, places []*models.Place) (int, error) {
	inserted := 0

	for start := 0; start < len(places); start += batchSize {
		end := start + batchSize
		if end > len(places) {
			end = len(places)
		}

		n, err := s.insertBatch(ctx, places[start:end])
		inserted += n
		if err != nil {
			return inserted, err
		}
	}

	return inserted, nil
}

func (s *Store) insertBatch(ctx context.Context, places []*models.Place) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO `+tableName+` (id, name, location)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326))
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, place := range places {
		if place == nil || place.Location == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, place.ID, place.Name, place.Location.Lon, place.Location.Lat); err != nil {
			return 0, fmt.Errorf("failed to insert place %s: %w", place.ID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return n, nil
}

// QueryBounds returns places inside box. Boxes overflowing ±180 are split
// into one envelope per side of the antimeridian.
func (s *Store) QueryBounds(ctx context.Context, box models.BoundingCoordinates) ([]*models.Place, error) {
	query, args := boundsQuery(box)
	return s.queryPlaces(ctx, query, args...)
}

// QueryRadius returns places within location.RadiusKm of its center. The
// derived bounding box narrows the GIST scan; distances are checked with the
// haversine formula so results agree with the in-memory index.
func (s *Store) QueryRadius(ctx context.Context, location models.GeoLocation) ([]*models.Place, error) {
	if err := location.Validate(); err != nil {
		return nil, err
	}

	candidates, err := s.QueryBounds(ctx, geo.CalculateBoundingCoordinates(location))
	if err != nil {
		return nil, err
	}

	results := candidates[:0]
	for _, p := range candidates {
		if geo.Distance(location.Lat, location.Lng, p.Location.Lat, p.Location.Lon) <= location.RadiusKm {
			results = append(results, p)
		}
	}
	return results, nil
}

func (s *Store) queryPlaces(ctx context.Context, query string, args ...any) ([]*models.Place, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var results []*models.Place
	for rows.Next() {
		var p models.Place
		var loc models.Location
		if err := rows.Scan(&p.ID, &p.Name, &loc.Lat, &loc.Lon); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		p.Location = &loc
		results = append(results, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return results, nil
}

// boundsQuery builds the envelope query for box. ST_MakeEnvelope takes
// xmin, ymin, xmax, ymax, i.e. longitude first.
func boundsQuery(box models.BoundingCoordinates) (string, []any) {
	parts := box.Normalize()

	conds := make([]string, 0, len(parts))
	args := make([]any, 0, 4*len(parts))
	for i, part := range parts {
		n := i * 4
		conds = append(conds, fmt.Sprintf("location && ST_MakeEnvelope($%d, $%d, $%d, $%d, 4326)", n+1, n+2, n+3, n+4))
		args = append(args, part.MinLng, part.MinLat, part.MaxLng, part.MaxLat)
	}

	query := `SELECT id, name, ST_Y(location) AS lat, ST_X(location) AS lon FROM ` + tableName +
		` WHERE ` + strings.Join(conds, " OR ")
	return query, args
}

// Count returns the number of stored places
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableName).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count places: %w", err)
	}
	return count, nil
}

// Stats reports database and table sizes
func (s *Store) Stats(ctx context.Context) (map[string]any, error) {
	stats := make(map[string]any)

	var dbSize string
	if err := s.db.QueryRowContext(ctx, `SELECT pg_size_pretty(pg_database_size(current_database()))`).Scan(&dbSize); err != nil {
		return nil, fmt.Errorf("failed to get database size: %w", err)
	}
	stats["database_size"] = dbSize

	var tableSize, indexSize string
	err := s.db.QueryRowContext(ctx, `
		SELECT
			pg_size_pretty(pg_total_relation_size('`+tableName+`')),
			pg_size_pretty(pg_indexes_size('`+tableName+`'))
	`).Scan(&tableSize, &indexSize)
	if err != nil {
		// table might not exist yet
		stats["table_size"] = "0 bytes"
		stats["index_size"] = "0 bytes"
	} else {
		stats["table_size"] = tableSize
		stats["index_size"] = indexSize
	}

	count, err := s.Count(ctx)
	if err == nil {
		stats["row_count"] = count
	}

	return stats, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
