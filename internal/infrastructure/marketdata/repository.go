package marketdata

import (
	"context"
	"fmt"

	domain "main/internal/domain/entity/marketdata"
	"main/internal/infrastructure/marketdata/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repository archives closed candles in Postgres.
type Repository struct {
	db *gorm.DB
}

// NewRepository connects and migrates the candle archive schema.
func NewRepository(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.AutoMigrate(&models.CandleRecord{}); err != nil {
		return nil, fmt.Errorf("migrate candle archive: %w", err)
	}
	return &Repository{db: db}, nil
}

// SaveCandle stores one closed candle.
func (r *Repository) SaveCandle(ctx context.Context, timeframe domain.Timeframe, candle domain.Candle) error {
	record := models.FromDomain(timeframe, candle)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("insert candle: %w", err)
	}
	return nil
}

// LastCandles returns up to limit most recent candles of a timeframe,
// oldest first.
func (r *Repository) LastCandles(ctx context.Context, timeframe domain.Timeframe, limit int) ([]domain.Candle, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	var records []models.CandleRecord
	err := r.db.WithContext(ctx).
		Where("timeframe = ?", timeframe.String()).
		Order("timestamp DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("select candles: %w", err)
	}

	candles := make([]domain.Candle, len(records))
	for i, record := range records {
		candles[len(records)-1-i] = record.ToDomain()
	}
	return candles, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() {
	if r == nil || r.db == nil {
		return
	}
	if sqlDB, err := r.db.DB(); err == nil {
		sqlDB.Close()
	}
}
