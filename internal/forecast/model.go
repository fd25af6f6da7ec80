package forecast

import (
	"bin-option/internal/custom_err"
	"bin-option/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Model обученный регрессор вместе с параметрами признаков и качеством на тесте
type Model struct {
	Pair      models.Pair
	No        int
	InputSize int
	Params    FeatureParams
	Regressor Regressor
	MSE       float64
	RMSE      float64
}

func (m *Model) Type() models.ModelType {
	return m.Regressor.Type()
}

// Predict прогноз курса: последний курс истории плюс предсказанное приращение.
// Берутся последние InputSize значений, более короткая история - ошибка.
func (m *Model) Predict(history []float64) (float64, error) {
	if len(history) < m.InputSize {
		return 0, fmt.Errorf("%w: history has %d rates, model needs %d",
			custom_err.ErrInputSizeMismatch, len(history), m.InputSize)
	}
	window := history[len(history)-m.InputSize:]

	features, err := Features(window, m.Params)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", custom_err.ErrComputation, err)
	}
	delta, err := m.Regressor.Predict(features)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", custom_err.ErrComputation, err)
	}
	predicted := window[len(window)-1] + delta
	if !isFinite(predicted) {
		return 0, fmt.Errorf("%w: prediction diverged", custom_err.ErrComputation)
	}
	return predicted, nil
}

// Evaluate пересчитывает MSE/RMSE модели на выборке
func (m *Model) Evaluate(samples []models.TrainingSample) error {
	if len(samples) == 0 {
		return errors.New("no samples to evaluate")
	}
	sum := 0.0
	for _, s := range samples {
		predicted, err := m.Predict(s.Input)
		if err != nil {
			return err
		}
		diff := predicted - s.Truth
		sum += diff * diff
	}
	m.MSE = sum / float64(len(samples))
	m.RMSE = math.Sqrt(m.MSE)
	if !isFinite(m.MSE) {
		return fmt.Errorf("%w: mse diverged", custom_err.ErrComputation)
	}
	return nil
}

// ToRecord сериализация для forecast_models
func (m *Model) ToRecord() (*models.ForecastModelRecord, error) {
	data, err := json.Marshal(m.Regressor)
	if err != nil {
		return nil, fmt.Errorf("encode model: %w", err)
	}
	params, err := m.Params.MarshalCanonical()
	if err != nil {
		return nil, fmt.Errorf("encode feature params: %w", err)
	}
	return &models.ForecastModelRecord{
		Pair:              m.Pair,
		ModelNo:           m.No,
		ModelType:         m.Type(),
		ModelData:         data,
		InputDataSize:     m.InputSize,
		FeatureParams:     params,
		FeatureParamsHash: m.Params.Hash(),
		PerformanceMSE:    m.MSE,
		PerformanceRMSE:   m.RMSE,
		Memo:              m.Type().String(),
	}, nil
}

// FromRecord восстанавливает модель; запись с неверным хешем параметров отвергается
func FromRecord(rec *models.ForecastModelRecord) (*Model, error) {
	hash, err := HashRaw(rec.FeatureParams)
	if err != nil {
		return nil, err
	}
	if hash != rec.FeatureParamsHash {
		return nil, fmt.Errorf("%w: model %d stores %s, params hash to %s",
			custom_err.ErrFeatureParamsHashMismatch, rec.ModelNo, rec.FeatureParamsHash, hash)
	}

	var params FeatureParams
	if err := json.Unmarshal(rec.FeatureParams, &params); err != nil {
		return nil, fmt.Errorf("decode feature params: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	reg, err := decodeRegressor(rec.ModelType, rec.ModelData)
	if err != nil {
		return nil, err
	}

	return &Model{
		Pair:      rec.Pair,
		No:        rec.ModelNo,
		InputSize: rec.InputDataSize,
		Params:    params,
		Regressor: reg,
		MSE:       rec.PerformanceMSE,
		RMSE:      rec.PerformanceRMSE,
	}, nil
}
