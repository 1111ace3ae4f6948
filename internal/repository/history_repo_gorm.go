package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightontime/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// predictionRow is the gorm mapping of the predictions table.
type predictionRow struct {
	ID            int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Airline       string    `gorm:"column:airline;type:varchar(2);not null"`
	Origin        string    `gorm:"column:origin;type:varchar(3);not null"`
	Destination   string    `gorm:"column:destination;type:varchar(3);not null"`
	DepartureTime time.Time `gorm:"column:departure_time;not null"`
	DistanceKm    int       `gorm:"column:distance_km;not null"`
	Result        string    `gorm:"column:result;type:varchar(16);not null"`
	Probability   float64   `gorm:"column:probability;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null;autoCreateTime:false;index:ix_predictions_created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false"`
}

func (predictionRow) TableName() string {
	return "predictions"
}

func (p predictionRow) toDomain() domain.HistoryRecord {
	return domain.HistoryRecord{
		ID:            p.ID,
		Airline:       p.Airline,
		Origin:        p.Origin,
		Destination:   p.Destination,
		DepartureTime: p.DepartureTime,
		DistanceKm:    p.DistanceKm,
		Result:        domain.PredictionResult(p.Result),
		Probability:   p.Probability,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

type GormHistoryRepository struct {
	db *gorm.DB
}

func NewGormHistoryRepository(db *gorm.DB) HistoryRepository {
	return &GormHistoryRepository{db: db}
}

// OpenSQLite opens the database at path and migrates the predictions table.
// ":memory:" is limited to one connection so every query sees the same data.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", path, err)
	}
	if path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&predictionRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate predictions: %w", err)
	}
	return db, nil
}

func (r *GormHistoryRepository) Create(ctx context.Context, record *domain.HistoryRecord) error {
	row := predictionRow{
		Airline:       record.Airline,
		Origin:        record.Origin,
		Destination:   record.Destination,
		DepartureTime: record.DepartureTime,
		DistanceKm:    record.DistanceKm,
		Result:        string(record.Result),
		Probability:   record.Probability,
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	record.ID = row.ID
	return nil
}

func (r *GormHistoryRepository) ListAll(ctx context.Context) ([]domain.HistoryRecord, error) {
	var rows []predictionRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}

	records := make([]domain.HistoryRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toDomain())
	}
	return records, nil
}

var _ HistoryRepository = (*GormHistoryRepository)(nil)
