package postgres

import (
	"bin-option/internal/models"
	"bin-option/internal/storage"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type DatasetRepository interface {
	ReplaceTx(ctx context.Context, tx pgx.Tx, pair models.Pair, samples []models.TrainingSample, memo string) (int64, error)
	DeleteOldTx(ctx context.Context, tx pgx.Tx, border time.Time) (int64, error)
}

type PgDatasetRepository struct {
	db DBTX
}

func NewDatasetRepository(db DBTX) DatasetRepository {
	return &PgDatasetRepository{db: db}
}

// ReplaceTx заменяет снимок обучающей выборки пары целиком
func (r *PgDatasetRepository) ReplaceTx(ctx context.Context, tx pgx.Tx, pair models.Pair, samples []models.TrainingSample, memo string) (int64, error) {
	const op = "storage.ReplaceDatasetTx"

	if _, err := tx.Exec(ctx, storage.DeleteTrainingDatasetsByPairQuery, string(pair)); err != nil {
		return 0, fmt.Errorf("%s: delete: %w", op, err)
	}
	if len(samples) == 0 {
		return 0, nil
	}

	inputs := make([]string, len(samples))
	truths := make([]float64, len(samples))
	for i, s := range samples {
		raw, err := json.Marshal(s.Input)
		if err != nil {
			return 0, fmt.Errorf("%s: marshal input: %w", op, err)
		}
		inputs[i] = string(raw)
		truths[i] = s.Truth
	}

	res, err := tx.Exec(ctx, storage.CreateTrainingDatasetsQuery, string(pair), inputs, truths, memo)
	if err != nil {
		return 0, fmt.Errorf("%s: insert: %w", op, err)
	}
	return res.RowsAffected(), nil
}

func (r *PgDatasetRepository) DeleteOldTx(ctx context.Context, tx pgx.Tx, border time.Time) (int64, error) {
	const op = "storage.DeleteOldDatasetsTx"

	res, err := tx.Exec(ctx, storage.DeleteOldTrainingDatasetsQuery, border.UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return res.RowsAffected(), nil
}
