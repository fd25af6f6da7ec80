package forecast

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bin-option/internal/custom_err"
	"bin-option/internal/models"
)

// planeSamples y = 2*x0 - 3*x1 + 1
func planeSamples(n int) ([][]float64, []float64) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = []float64{rng.Float64() * 10, rng.Float64() * 10}
		y[i] = 2*x[i][0] - 3*x[i][1] + 1
	}
	return x, y
}

func TestLinearRegressor_FitsPlane(t *testing.T) {
	x, y := planeSamples(50)
	reg := &LinearRegressor{}

	require.NoError(t, reg.Fit(x, y))

	got, err := reg.Predict([]float64{4, 1})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, got, 1e-6)
}

func TestLinearRegressor_TooFewSamples(t *testing.T) {
	reg := &LinearRegressor{}
	err := reg.Fit([][]float64{{1, 2}, {3, 4}}, []float64{1, 2})
	assert.Error(t, err)
}

func TestRidgeRegressor_ApproximatesPlane(t *testing.T) {
	x, y := planeSamples(50)
	reg := &RidgeRegressor{Alpha: 1}

	require.NoError(t, reg.Fit(x, y))

	got, err := reg.Predict([]float64{4, 1})
	require.NoError(t, err)
	assert.InDelta(t, 6.0, got, 1.0)
}

func TestKNNRegressor_AveragesNeighbours(t *testing.T) {
	var x [][]float64
	var y []float64
	for i := 0; i < 20; i++ {
		x = append(x, []float64{float64(i)})
		y = append(y, float64(i))
	}
	reg := &KNNRegressor{K: 5}

	require.NoError(t, reg.Fit(x, y))

	got, err := reg.Predict([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got, 1e-9)
}

func TestRegressor_DimensionMismatch(t *testing.T) {
	x, y := planeSamples(20)
	for _, modelType := range AllModelTypes() {
		t.Run(modelType.String(), func(t *testing.T) {
			reg, err := NewRegressor(modelType)
			require.NoError(t, err)
			require.NoError(t, reg.Fit(x, y))

			_, err = reg.Predict([]float64{1, 2, 3})
			assert.True(t, errors.Is(err, ErrDimension))
		})
	}
}

func TestRegressor_RejectsBadTrainingSet(t *testing.T) {
	for _, modelType := range AllModelTypes() {
		t.Run(modelType.String(), func(t *testing.T) {
			reg, err := NewRegressor(modelType)
			require.NoError(t, err)

			assert.Error(t, reg.Fit(nil, nil))
			assert.Error(t, reg.Fit([][]float64{{1}, {2, 3}}, []float64{1, 2}))
			assert.Error(t, reg.Fit([][]float64{{1}}, []float64{1, 2}))
		})
	}
}

func TestNewRegressor_UnknownType(t *testing.T) {
	_, err := NewRegressor(models.ModelType(42))
	assert.Error(t, err)
}

func trainedModel(t *testing.T) *Model {
	t.Helper()
	rng := rand.New(rand.NewPCG(5, 6))
	rates := linearRates(80, 100, 0.01)
	for i := range rates {
		rates[i] += 0.05 * rng.Float64()
	}
	samples := BuildDataset(rates, DatasetConfig{InputSize: 10, Offset: 2, Stride: 1})
	require.NotEmpty(t, samples)

	trainer := NewTrainer(TrainerConfig{Pair: models.PairUSDJPY, ModelNo: 1, InputSize: 10, TrainingCount: 1, PopulationSize: 1},
		rand.New(rand.NewPCG(3, 4)), discardLogger())
	trained, _ := trainer.TrainParams(testParams, samples, samples)
	require.NotEmpty(t, trained)
	return trained[0]
}

func TestModel_RecordRoundTrip(t *testing.T) {
	model := trainedModel(t)
	history := linearRates(12, 100, 0.02)

	rec, err := model.ToRecord()
	require.NoError(t, err)
	assert.Equal(t, testParams.Hash(), rec.FeatureParamsHash)
	assert.Equal(t, 10, rec.InputDataSize)

	restored, err := FromRecord(rec)
	require.NoError(t, err)

	want, err := model.Predict(history)
	require.NoError(t, err)
	got, err := restored.Predict(history)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
	assert.Equal(t, model.RMSE, restored.RMSE)
}

func TestFromRecord_HashMismatch(t *testing.T) {
	rec, err := trainedModel(t).ToRecord()
	require.NoError(t, err)

	rec.FeatureParams = json.RawMessage(`{"bb_period":6,"fast_period":2,"feature_size":3,"signal_period":2,"slow_period":4}`)

	_, err = FromRecord(rec)
	assert.ErrorIs(t, err, custom_err.ErrFeatureParamsHashMismatch)
}

func TestModel_Predict_ShortHistory(t *testing.T) {
	model := trainedModel(t)

	_, err := model.Predict(linearRates(5, 100, 0.01))

	assert.ErrorIs(t, err, custom_err.ErrInputSizeMismatch)
}

func TestModel_Predict_UsesTail(t *testing.T) {
	model := trainedModel(t)
	tail := linearRates(10, 100, 0.02)
	long := append(linearRates(30, 50, 1), tail...)

	want, err := model.Predict(tail)
	require.NoError(t, err)
	got, err := model.Predict(long)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFromRecord_RejectsMalformedModelData(t *testing.T) {
	tests := []struct {
		name      string
		modelType models.ModelType
		data      string
	}{
		{
			name:      "linear weights shorter than scaler",
			modelType: models.ModelTypeLinear,
			data:      `{"scaler":{"mean":[0,0,0,0,0,0],"std":[1,1,1,1,1,1]},"weights":[1],"bias":0}`,
		},
		{
			name:      "linear scaler std missing",
			modelType: models.ModelTypeLinear,
			data:      `{"scaler":{"mean":[0,0],"std":[1]},"weights":[1,1],"bias":0}`,
		},
		{
			name:      "ridge without scaler",
			modelType: models.ModelTypeRidge,
			data:      `{"alpha":1,"scaler":{"mean":[],"std":[]},"weights":[],"bias":0}`,
		},
		{
			name:      "knn point narrower than scaler",
			modelType: models.ModelTypeKNN,
			data:      `{"k":1,"scaler":{"mean":[0,0],"std":[1,1]},"points":[[0,0],[1]],"targets":[1,2]}`,
		},
		{
			name:      "knn targets shorter than points",
			modelType: models.ModelTypeKNN,
			data:      `{"k":1,"scaler":{"mean":[0,0],"std":[1,1]},"points":[[0,0],[1,1]],"targets":[1]}`,
		},
		{
			name:      "knn zero neighbours",
			modelType: models.ModelTypeKNN,
			data:      `{"k":0,"scaler":{"mean":[0],"std":[1]},"points":[[0]],"targets":[1]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := trainedModel(t).ToRecord()
			require.NoError(t, err)
			rec.ModelType = tt.modelType
			rec.ModelData = json.RawMessage(tt.data)

			model, err := FromRecord(rec)

			require.Error(t, err)
			assert.Nil(t, model)
		})
	}
}

func TestFromRecord_LinearShapeMismatchIsDimensionError(t *testing.T) {
	rec, err := trainedModel(t).ToRecord()
	require.NoError(t, err)
	rec.ModelType = models.ModelTypeLinear
	rec.ModelData = json.RawMessage(`{"scaler":{"mean":[0,0,0,0,0,0],"std":[1,1,1,1,1,1]},"weights":[1],"bias":0}`)

	_, err = FromRecord(rec)

	assert.True(t, errors.Is(err, ErrDimension))
}
