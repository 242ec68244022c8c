// Package catalog is the durable store of reconciled device and brand rows,
// authoritative for the rest of the application. The import pipeline only
// inserts and merges; deletion is an administrative action elsewhere.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"phonehub/internal/normalize"
	"phonehub/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

// ListQuery filters the device read surface.
type ListQuery struct {
	Q      string // keyword search in name/brand
	Brand  string // exact brand slug
	Limit  int
	Offset int
}

const deviceColumns = `identity_key, brand, name, slug, price, ram, storage, camera,
	battery, display, processor, specifications, images, release_date, provenance`

// FindByIdentityKey returns the device for the given key, or nil when absent.
func (r *Repo) FindByIdentityKey(ctx context.Context, key string) (*models.Device, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices
		WHERE identity_key = ?
	`, key)

	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan device: %w", err)
	}
	return d, nil
}

// FindBySlug returns the device for the given slug, or nil when absent.
func (r *Repo) FindBySlug(ctx context.Context, slug string) (*models.Device, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+deviceColumns+`
		FROM devices
		WHERE slug = ?
	`, slug)

	d, err := scanDevice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan device: %w", err)
	}
	return d, nil
}

// UpsertDevice writes the full canonical row keyed on identity_key.
// Merging happens before this call; the row as given wins.
func (r *Repo) UpsertDevice(ctx context.Context, d models.Device) error {
	specsJSON, err := json.Marshal(d.Specs)
	if err != nil {
		return fmt.Errorf("marshal specs for %s: %w", d.IdentityKey, err)
	}
	imagesJSON, err := json.Marshal(d.Images)
	if err != nil {
		return fmt.Errorf("marshal images for %s: %w", d.IdentityKey, err)
	}
	provJSON, err := json.Marshal(d.Provenance)
	if err != nil {
		return fmt.Errorf("marshal provenance for %s: %w", d.IdentityKey, err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO devices (identity_key, brand, name, slug, price, ram, storage, camera,
			battery, display, processor, specifications, images, release_date, provenance, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity_key) DO UPDATE SET
		  brand = excluded.brand,
		  name = excluded.name,
		  slug = excluded.slug,
		  price = excluded.price,
		  ram = excluded.ram,
		  storage = excluded.storage,
		  camera = excluded.camera,
		  battery = excluded.battery,
		  display = excluded.display,
		  processor = excluded.processor,
		  specifications = excluded.specifications,
		  images = excluded.images,
		  release_date = excluded.release_date,
		  provenance = excluded.provenance,
		  updated_at = excluded.updated_at
	`,
		d.IdentityKey, d.Brand, d.Name, d.Slug, d.Price,
		nullString(d.ShortSpecs.RAM), nullString(d.ShortSpecs.Storage),
		nullString(d.ShortSpecs.Camera), nullString(d.ShortSpecs.Battery),
		nullString(d.ShortSpecs.Display), nullString(d.ShortSpecs.Processor),
		string(specsJSON), string(imagesJSON), nullString(d.ReleaseDate), string(provJSON),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upsert device %s: %w", d.IdentityKey, err)
	}
	return nil
}

// ListDevices returns a page of devices matching the query, ordered by name.
func (r *Repo) ListDevices(ctx context.Context, q ListQuery) ([]models.Device, error) {
	sqlStr, args := buildListSQL(q, false)

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Device, 0, q.Limit)
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

// CountDevices returns the total matching the query, ignoring pagination.
func (r *Repo) CountDevices(ctx context.Context, q ListQuery) (int, error) {
	sqlStr, args := buildListSQL(q, true)
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	var total int
	if err := row.Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

// UpsertBrand inserts or updates a brand row matched by slug. Brands absent
// from a new provider listing are never deleted.
func (r *Repo) UpsertBrand(ctx context.Context, b models.Brand) error {
	visible := 0
	if b.Visible {
		visible = 1
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO brands (slug, name, visible)
		VALUES (?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
		  name = excluded.name
	`, b.Slug, b.Name, visible)
	if err != nil {
		return fmt.Errorf("upsert brand %s: %w", b.Slug, err)
	}
	return nil
}

// FindBrandBySlug returns the brand row, or nil when absent.
func (r *Repo) FindBrandBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT slug, name, visible, phone_count FROM brands WHERE slug = ?
	`, slug)

	var (
		b       models.Brand
		visible int
	)
	if err := row.Scan(&b.Slug, &b.Name, &visible, &b.PhoneCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan brand: %w", err)
	}
	b.Visible = visible != 0
	return &b, nil
}

// ListBrands returns all brands ordered by name.
func (r *Repo) ListBrands(ctx context.Context) ([]models.Brand, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT slug, name, visible, phone_count FROM brands ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()

	var out []models.Brand
	for rows.Next() {
		var (
			b       models.Brand
			visible int
		)
		if err := rows.Scan(&b.Slug, &b.Name, &visible, &b.PhoneCount); err != nil {
			return nil, fmt.Errorf("brand scan: %w", err)
		}
		b.Visible = visible != 0
		out = append(out, b)
	}
	return out, rows.Err()
}

// Counts returns total brand and device rows. Read-only; no network.
func (r *Repo) Counts(ctx context.Context) (brands, devices int, err error) {
	if err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM brands`).Scan(&brands); err != nil {
		return 0, 0, fmt.Errorf("count brands: %w", err)
	}
	if err = r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&devices); err != nil {
		return 0, 0, fmt.Errorf("count devices: %w", err)
	}
	return brands, devices, nil
}

// RecomputeBrandCounts refreshes the derived phone_count on every brand row
// from the device rows. The pipeline never mutates the count directly.
func (r *Repo) RecomputeBrandCounts(ctx context.Context) error {
	rows, err := r.DB.QueryContext(ctx, `SELECT brand, COUNT(*) FROM devices GROUP BY brand`)
	if err != nil {
		return fmt.Errorf("group devices: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			brand string
			n     int
		)
		if err := rows.Scan(&brand, &n); err != nil {
			return fmt.Errorf("group scan: %w", err)
		}
		counts[normalize.BrandSlug(brand)] += n
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("group rows: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE brands SET phone_count = 0`); err != nil {
		return fmt.Errorf("reset counts: %w", err)
	}
	for slug, n := range counts {
		if _, err := tx.ExecContext(ctx, `UPDATE brands SET phone_count = ? WHERE slug = ?`, n, slug); err != nil {
			return fmt.Errorf("update count for %s: %w", slug, err)
		}
	}
	return tx.Commit()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(row scanner) (*models.Device, error) {
	var (
		d           models.Device
		ram         sql.NullString
		storage     sql.NullString
		camera      sql.NullString
		battery     sql.NullString
		display     sql.NullString
		processor   sql.NullString
		specsJSON   sql.NullString
		imagesJSON  sql.NullString
		releaseDate sql.NullString
		provJSON    sql.NullString
	)

	if err := row.Scan(
		&d.IdentityKey, &d.Brand, &d.Name, &d.Slug, &d.Price,
		&ram, &storage, &camera, &battery, &display, &processor,
		&specsJSON, &imagesJSON, &releaseDate, &provJSON,
	); err != nil {
		return nil, err
	}

	d.ShortSpecs = models.ShortSpecs{
		RAM:       ram.String,
		Storage:   storage.String,
		Camera:    camera.String,
		Battery:   battery.String,
		Display:   display.String,
		Processor: processor.String,
	}
	d.ReleaseDate = releaseDate.String

	if specsJSON.Valid {
		_ = json.Unmarshal([]byte(specsJSON.String), &d.Specs)
	}
	if imagesJSON.Valid {
		_ = json.Unmarshal([]byte(imagesJSON.String), &d.Images)
	}
	if provJSON.Valid {
		_ = json.Unmarshal([]byte(provJSON.String), &d.Provenance)
	}
	return &d, nil
}

func buildListSQL(q ListQuery, countOnly bool) (string, []any) {
	baseSelect := `SELECT ` + deviceColumns + ` FROM devices`
	if countOnly {
		baseSelect = `SELECT COUNT(*) FROM devices`
	}

	var where []string
	var args []any

	if strings.TrimSpace(q.Q) != "" {
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(brand) LIKE ?)")
		kw := "%" + strings.ToLower(strings.TrimSpace(q.Q)) + "%"
		args = append(args, kw, kw)
	}

	if strings.TrimSpace(q.Brand) != "" {
		where = append(where, "(LOWER(brand) = ? OR slug LIKE ?)")
		brand := strings.ToLower(strings.TrimSpace(q.Brand))
		args = append(args, brand, brand+"-%")
	}

	sqlStr := baseSelect
	if len(where) > 0 {
		sqlStr += " WHERE " + strings.Join(where, " AND ")
	}

	if !countOnly {
		sqlStr += " ORDER BY name ASC"
		sqlStr += " LIMIT ? OFFSET ?"
		limit := q.Limit
		if limit <= 0 || limit > 100 {
			limit = 20
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		args = append(args, limit, offset)
	}

	return sqlStr, args
}

func nullString(raw string) sql.NullString {
	if raw == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}
