package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abgtour/planttour/internal/core/domain"
)

// upsertChunk bounds the statements queued in one pgx.Batch.
const upsertChunk = 500

const upsertPlantSQL = `
	INSERT INTO plants (plant_id, common_name_1, common_name_2, common_name_3,
	                    genus, species, cultivar, height_m, location, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
	        ST_SetSRID(ST_MakePoint($9, $10), 4326)::geography, now())
	ON CONFLICT (plant_id) DO UPDATE
	SET common_name_1 = EXCLUDED.common_name_1,
	    common_name_2 = EXCLUDED.common_name_2,
	    common_name_3 = EXCLUDED.common_name_3,
	    genus = EXCLUDED.genus, species = EXCLUDED.species,
	    cultivar = EXCLUDED.cultivar, height_m = EXCLUDED.height_m,
	    location = EXCLUDED.location, updated_at = now()
`

const plantColumns = `
	plant_id, common_name_1, common_name_2, common_name_3,
	genus, species, cultivar, height_m,
	ST_Y(location::geometry) AS lat,
	ST_X(location::geometry) AS lon
`

// PlantRepo implements ports.PlantRepository with pgx and PostGIS.
type PlantRepo struct {
	db *DB
}

// NewPlantRepo creates a new PlantRepo.
func NewPlantRepo(db *DB) *PlantRepo {
	return &PlantRepo{db: db}
}

// UpsertBatch inserts or updates plants by id. Within one call a repeated id
// ends with the values of its last occurrence.
func (r *PlantRepo) UpsertBatch(ctx context.Context, plants []domain.PlantRecord) error {
	for start := 0; start < len(plants); start += upsertChunk {
		end := start + upsertChunk
		if end > len(plants) {
			end = len(plants)
		}
		if err := r.upsertChunk(ctx, plants[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PlantRepo) upsertChunk(ctx context.Context, plants []domain.PlantRecord) error {
	batch := &pgx.Batch{}
	for _, p := range plants {
		batch.Queue(upsertPlantSQL,
			p.ID, p.CommonName1, p.CommonName2, p.CommonName3,
			p.Genus, p.Species, p.Cultivar, p.Height,
			p.Location.Lon, p.Location.Lat)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range plants {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a plant by catalog id.
func (r *PlantRepo) GetByID(ctx context.Context, id string) (*domain.PlantRecord, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+plantColumns+` FROM plants WHERE plant_id = $1`, id)

	p, err := scanPlant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("plant %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// FindNearby returns plants within radiusMeters using PostGIS ST_DWithin.
func (r *PlantRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.RankedPlant, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT `+plantColumns+`,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance
		FROM plants
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance, plant_id
		LIMIT $4
	`, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RankedPlant
	for rows.Next() {
		var rp domain.RankedPlant
		p := &rp.PlantRecord
		if err := rows.Scan(
			&p.ID, &p.CommonName1, &p.CommonName2, &p.CommonName3,
			&p.Genus, &p.Species, &p.Cultivar, &p.Height,
			&p.Location.Lat, &p.Location.Lon, &rp.DistanceMeters,
		); err != nil {
			return nil, err
		}
		out = append(out, rp)
	}
	return out, rows.Err()
}

// Count returns the number of stored plants.
func (r *PlantRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM plants`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func scanPlant(row pgx.Row) (domain.PlantRecord, error) {
	var p domain.PlantRecord
	err := row.Scan(
		&p.ID, &p.CommonName1, &p.CommonName2, &p.CommonName3,
		&p.Genus, &p.Species, &p.Cultivar, &p.Height,
		&p.Location.Lat, &p.Location.Lon,
	)
	return p, err
}
