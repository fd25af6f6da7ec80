package postgres

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"bin-option/internal/storage"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type ModelRepository interface {
	Get(ctx context.Context, pair models.Pair, modelNo int) (*models.ForecastModelRecord, error)
	List(ctx context.Context, pair models.Pair) ([]*models.ForecastModelRecord, error)
	UpsertTx(ctx context.Context, tx pgx.Tx, record *models.ForecastModelRecord) error
}

type PgModelRepository struct {
	db DBTX
}

func NewModelRepository(db DBTX) ModelRepository {
	return &PgModelRepository{db: db}
}

func (r *PgModelRepository) Get(ctx context.Context, pair models.Pair, modelNo int) (*models.ForecastModelRecord, error) {
	const op = "storage.GetModel"

	record, err := scanModel(r.db.QueryRow(ctx, storage.GetForecastModelQuery, string(pair), modelNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, custom_err.ErrModelNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return record, nil
}

func (r *PgModelRepository) List(ctx context.Context, pair models.Pair) ([]*models.ForecastModelRecord, error) {
	const op = "storage.ListModels"

	rows, err := r.db.Query(ctx, storage.ListForecastModelsQuery, string(pair))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var records []*models.ForecastModelRecord
	for rows.Next() {
		record, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan error: %w", op, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

func (r *PgModelRepository) UpsertTx(ctx context.Context, tx pgx.Tx, record *models.ForecastModelRecord) error {
	const op = "storage.UpsertModelTx"

	_, err := tx.Exec(ctx, storage.UpsertForecastModelQuery,
		string(record.Pair),
		record.ModelNo,
		int16(record.ModelType),
		[]byte(record.ModelData),
		record.InputDataSize,
		[]byte(record.FeatureParams),
		record.FeatureParamsHash,
		record.PerformanceMSE,
		record.PerformanceRMSE,
		record.Memo,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanModel(row pgx.Row) (*models.ForecastModelRecord, error) {
	var (
		record        models.ForecastModelRecord
		modelType     int16
		modelData     []byte
		featureParams []byte
	)
	err := row.Scan(
		&record.Pair,
		&record.ModelNo,
		&modelType,
		&modelData,
		&record.InputDataSize,
		&featureParams,
		&record.FeatureParamsHash,
		&record.PerformanceMSE,
		&record.PerformanceRMSE,
		&record.Memo,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.ModelType = models.ModelType(modelType)
	record.ModelData = modelData
	record.FeatureParams = featureParams
	return &record, nil
}
