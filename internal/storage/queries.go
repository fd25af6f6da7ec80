package storage

const (
	// Rate queries
	UpsertRatesQuery = `
		INSERT INTO rates_for_training (pair, recorded_at, rate)
		SELECT $1, t.recorded_at, t.rate
		FROM unnest($2::timestamptz[], $3::float8[]) AS t(recorded_at, rate)
		ON CONFLICT (pair, recorded_at)
		DO UPDATE SET rate = EXCLUDED.rate, updated_at = now()
	`

	GetRatesInRangeQuery = `
		SELECT pair, recorded_at, rate, created_at, updated_at
		FROM rates_for_training
		WHERE pair = $1 AND recorded_at BETWEEN $2 AND $3
		ORDER BY recorded_at
	`

	// Удаление котировок старше границы
	DeleteOldRatesQuery = `
		DELETE FROM rates_for_training
		WHERE recorded_at < $1
	`

	// History queries
	CreateRateHistoryQuery = `
		INSERT INTO rates_for_forecast (id, pair, histories, expire, memo)
		VALUES ($1, $2, $3, $4, $5)
	`

	// История с истекшим expire считается несуществующей
	GetActiveRateHistoryQuery = `
		SELECT id, pair, histories, expire, memo, created_at, updated_at
		FROM rates_for_forecast
		WHERE id = $1 AND expire >= $2
	`

	// Активные истории, для которых хотя бы у одной модели нет ни результата, ни ошибки
	ListUnforecastedHistoriesQuery = `
		SELECT h.id, h.pair, h.histories, h.expire, h.memo, h.created_at, h.updated_at
		FROM rates_for_forecast h
		WHERE h.pair = $1
		  AND h.expire >= $2
		  AND EXISTS (
			SELECT 1
			FROM forecast_models m
			WHERE m.pair = h.pair
			  AND NOT EXISTS (
				SELECT 1 FROM forecast_results r
				WHERE r.rate_id = h.id AND r.model_no = m.model_no AND r.forecast_type = $3
			  )
			  AND NOT EXISTS (
				SELECT 1 FROM forecast_errors e
				WHERE e.rate_id = h.id AND e.model_no = m.model_no
			  )
		  )
		ORDER BY h.created_at
		LIMIT $4
	`

	DeleteExpiredHistoriesQuery = `
		DELETE FROM rates_for_forecast
		WHERE expire < $1
	`

	// Model queries
	GetForecastModelQuery = `
		SELECT pair, model_no, model_type, model_data, input_data_size, feature_params,
		       feature_params_hash, performance_mse, performance_rmse, memo, created_at, updated_at
		FROM forecast_models
		WHERE pair = $1 AND model_no = $2
	`

	ListForecastModelsQuery = `
		SELECT pair, model_no, model_type, model_data, input_data_size, feature_params,
		       feature_params_hash, performance_mse, performance_rmse, memo, created_at, updated_at
		FROM forecast_models
		WHERE pair = $1
		ORDER BY model_no
	`

	UpsertForecastModelQuery = `
		INSERT INTO forecast_models (
			pair, model_no, model_type, model_data, input_data_size, feature_params,
			feature_params_hash, performance_mse, performance_rmse, memo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (pair, model_no) DO UPDATE SET
			model_type          = EXCLUDED.model_type,
			model_data          = EXCLUDED.model_data,
			input_data_size     = EXCLUDED.input_data_size,
			feature_params      = EXCLUDED.feature_params,
			feature_params_hash = EXCLUDED.feature_params_hash,
			performance_mse     = EXCLUDED.performance_mse,
			performance_rmse    = EXCLUDED.performance_rmse,
			memo                = EXCLUDED.memo,
			updated_at          = now()
	`

	// Result queries
	GetForecastResultQuery = `
		SELECT id, rate_id, model_no, forecast_type, result, rmse, memo, created_at
		FROM forecast_results
		WHERE rate_id = $1 AND model_no = $2 AND forecast_type = $3
	`

	// Повторная запись того же прогноза игнорируется
	CreateForecastResultQuery = `
		INSERT INTO forecast_results (rate_id, model_no, forecast_type, result, rmse, memo)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (rate_id, model_no, forecast_type) DO NOTHING
	`

	DeleteExpiredForecastResultsQuery = `
		DELETE FROM forecast_results
		WHERE rate_id IN (SELECT id FROM rates_for_forecast WHERE expire < $1)
	`

	// Error queries
	GetForecastErrorQuery = `
		SELECT id, rate_id, model_no, summary, detail, created_at
		FROM forecast_errors
		WHERE rate_id = $1 AND model_no = $2
	`

	CreateForecastErrorQuery = `
		INSERT INTO forecast_errors (rate_id, model_no, summary, detail)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (rate_id, model_no) DO NOTHING
	`

	DeleteExpiredForecastErrorsQuery = `
		DELETE FROM forecast_errors
		WHERE rate_id IN (SELECT id FROM rates_for_forecast WHERE expire < $1)
	`

	// Training dataset queries
	DeleteTrainingDatasetsByPairQuery = `
		DELETE FROM training_datasets
		WHERE pair = $1
	`

	CreateTrainingDatasetsQuery = `
		INSERT INTO training_datasets (pair, input_data, truth, memo)
		SELECT $1, t.input_data::jsonb, t.truth, $4
		FROM unnest($2::text[], $3::float8[]) AS t(input_data, truth)
	`

	DeleteOldTrainingDatasetsQuery = `
		DELETE FROM training_datasets
		WHERE created_at < $1
	`
)
