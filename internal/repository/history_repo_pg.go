package repository

import (
	"context"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository interface {
	Create(ctx context.Context, record *domain.HistoryRecord) error
	ListAll(ctx context.Context) ([]domain.HistoryRecord, error)
}

type PGHistoryRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) HistoryRepository {
	return &PGHistoryRepository{db: db}
}

// InitSchema creates the predictions table when it is missing.
func InitSchema(ctx context.Context, db *pgxpool.Pool) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS predictions(
			id BIGSERIAL PRIMARY KEY,
			airline VARCHAR(2) NOT NULL,
			origin VARCHAR(3) NOT NULL,
			destination VARCHAR(3) NOT NULL,
			departure_time TIMESTAMP NOT NULL,
			distance_km INTEGER NOT NULL,
			result VARCHAR(16) NOT NULL,
			probability DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_predictions_created_at
		 ON predictions(created_at DESC, id DESC)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts record and sets its ID.
func (r *PGHistoryRepository) Create(ctx context.Context, record *domain.HistoryRecord) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO predictions (airline, origin, destination, departure_time, distance_km, result, probability, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		record.Airline, record.Origin, record.Destination, record.DepartureTime, record.DistanceKm,
		string(record.Result), record.Probability, record.CreatedAt, record.UpdatedAt,
	).Scan(&record.ID)
}

func (r *PGHistoryRepository) ListAll(ctx context.Context) ([]domain.HistoryRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, airline, origin, destination, departure_time, distance_km, result, probability, created_at, updated_at FROM predictions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.HistoryRecord, 0)
	for rows.Next() {
		var (
			h      domain.HistoryRecord
			result string
		)
		if err := rows.Scan(&h.ID, &h.Airline, &h.Origin, &h.Destination, &h.DepartureTime, &h.DistanceKm, &result, &h.Probability, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		h.Result = domain.PredictionResult(result)
		records = append(records, h)
	}
	return records, rows.Err()
}

var _ HistoryRepository = (*PGHistoryRepository)(nil)
