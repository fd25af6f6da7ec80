package forecast

import (
	"bin-option/internal/models"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var ErrDimension = errors.New("feature dimension mismatch")

// Regressor обучаемая модель признаки -> приращение курса
type Regressor interface {
	Type() models.ModelType
	Fit(x [][]float64, y []float64) error
	Predict(x []float64) (float64, error)
}

// NewRegressor пустой регрессор заданного типа
func NewRegressor(t models.ModelType) (Regressor, error) {
	switch t {
	case models.ModelTypeLinear:
		return &LinearRegressor{}, nil
	case models.ModelTypeRidge:
		return &RidgeRegressor{Alpha: defaultRidgeAlpha}, nil
	case models.ModelTypeKNN:
		return &KNNRegressor{K: defaultNeighbors}, nil
	default:
		return nil, fmt.Errorf("unknown model type %d", t)
	}
}

// AllModelTypes порядок, в котором батч обучает регрессоры
func AllModelTypes() []models.ModelType {
	return []models.ModelType{models.ModelTypeLinear, models.ModelTypeRidge, models.ModelTypeKNN}
}

func decodeRegressor(t models.ModelType, raw []byte) (Regressor, error) {
	reg, err := NewRegressor(t)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, reg); err != nil {
		return nil, fmt.Errorf("decode %s model: %w", t, err)
	}
	if v, ok := reg.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("decode %s model: %w", t, err)
		}
	}
	return reg, nil
}

// Scaler стандартизация признаков по столбцам
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

func (s *Scaler) Fit(x [][]float64) {
	d := len(x[0])
	s.Mean = make([]float64, d)
	s.Std = make([]float64, d)
	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
}

func (s *Scaler) validate() error {
	if len(s.Mean) == 0 {
		return fmt.Errorf("%w: scaler is empty", ErrDimension)
	}
	if len(s.Std) != len(s.Mean) {
		return fmt.Errorf("%w: scaler has %d means and %d deviations", ErrDimension, len(s.Mean), len(s.Std))
	}
	return nil
}

func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("%w: got %d, model expects %d", ErrDimension, len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

func validateTrainingSet(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return errors.New("empty training set")
	}
	if len(x) != len(y) {
		return fmt.Errorf("%d samples but %d targets", len(x), len(y))
	}
	d := len(x[0])
	if d == 0 {
		return errors.New("samples have no features")
	}
	for i, row := range x {
		if len(row) != d {
			return fmt.Errorf("%w: sample %d has %d features, expected %d", ErrDimension, i, len(row), d)
		}
	}
	return nil
}

func validateWeights(scaler Scaler, weights []float64) error {
	if err := scaler.validate(); err != nil {
		return err
	}
	if len(weights) != len(scaler.Mean) {
		return fmt.Errorf("%w: %d weights for %d features", ErrDimension, len(weights), len(scaler.Mean))
	}
	return nil
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if !isFinite(v) {
			return fmt.Errorf("coefficient %d diverged", i)
		}
	}
	return nil
}

// LinearRegressor метод наименьших квадратов (QR)
type LinearRegressor struct {
	Scaler  Scaler    `json:"scaler"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (r *LinearRegressor) Type() models.ModelType { return models.ModelTypeLinear }

func (r *LinearRegressor) Fit(x [][]float64, y []float64) error {
	if err := validateTrainingSet(x, y); err != nil {
		return err
	}
	n, d := len(x), len(x[0])
	if n <= d {
		return fmt.Errorf("need more than %d samples for %d features, got %d", d, d, n)
	}

	r.Scaler.Fit(x)
	design := mat.NewDense(n, d+1, nil)
	for i, row := range x {
		scaled, _ := r.Scaler.Transform(row)
		design.Set(i, 0, 1)
		for j, v := range scaled {
			design.Set(i, j+1, v)
		}
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return fmt.Errorf("least squares: %w", err)
	}

	raw := coef.RawVector().Data
	if err := checkFinite(raw); err != nil {
		return err
	}
	r.Bias = raw[0]
	r.Weights = append([]float64(nil), raw[1:]...)
	return nil
}

func (r *LinearRegressor) validate() error {
	return validateWeights(r.Scaler, r.Weights)
}

func (r *LinearRegressor) Predict(x []float64) (float64, error) {
	scaled, err := r.Scaler.Transform(x)
	if err != nil {
		return 0, err
	}
	return r.Bias + floats.Dot(r.Weights, scaled), nil
}

const defaultRidgeAlpha = 1.0

// RidgeRegressor L2-регуляризованная регрессия, решается через нормальные уравнения
type RidgeRegressor struct {
	Alpha   float64   `json:"alpha"`
	Scaler  Scaler    `json:"scaler"`
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

func (r *RidgeRegressor) Type() models.ModelType { return models.ModelTypeRidge }

func (r *RidgeRegressor) Fit(x [][]float64, y []float64) error {
	if err := validateTrainingSet(x, y); err != nil {
		return err
	}
	if r.Alpha <= 0 {
		r.Alpha = defaultRidgeAlpha
	}
	n, d := len(x), len(x[0])

	r.Scaler.Fit(x)
	data := make([]float64, 0, n*d)
	for _, row := range x {
		scaled, _ := r.Scaler.Transform(row)
		data = append(data, scaled...)
	}
	design := mat.NewDense(n, d, data)

	yMean := stat.Mean(y, nil)
	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - yMean
	}

	var gram mat.Dense
	gram.Mul(design.T(), design)
	for j := 0; j < d; j++ {
		gram.Set(j, j, gram.At(j, j)+r.Alpha)
	}

	var rhs mat.VecDense
	rhs.MulVec(design.T(), mat.NewVecDense(n, centered))

	var coef mat.VecDense
	if err := coef.SolveVec(&gram, &rhs); err != nil {
		return fmt.Errorf("ridge solve: %w", err)
	}

	raw := coef.RawVector().Data
	if err := checkFinite(raw); err != nil {
		return err
	}
	r.Weights = append([]float64(nil), raw...)
	r.Bias = yMean
	return nil
}

func (r *RidgeRegressor) validate() error {
	return validateWeights(r.Scaler, r.Weights)
}

func (r *RidgeRegressor) Predict(x []float64) (float64, error) {
	scaled, err := r.Scaler.Transform(x)
	if err != nil {
		return 0, err
	}
	return r.Bias + floats.Dot(r.Weights, scaled), nil
}

const defaultNeighbors = 5

// KNNRegressor среднее по K ближайшим (евклидово расстояние) обучающим точкам
type KNNRegressor struct {
	K       int         `json:"k"`
	Scaler  Scaler      `json:"scaler"`
	Points  [][]float64 `json:"points"`
	Targets []float64   `json:"targets"`
}

func (r *KNNRegressor) Type() models.ModelType { return models.ModelTypeKNN }

func (r *KNNRegressor) Fit(x [][]float64, y []float64) error {
	if err := validateTrainingSet(x, y); err != nil {
		return err
	}
	if r.K <= 0 {
		r.K = defaultNeighbors
	}

	r.Scaler.Fit(x)
	r.Points = make([][]float64, len(x))
	for i, row := range x {
		r.Points[i], _ = r.Scaler.Transform(row)
	}
	r.Targets = append([]float64(nil), y...)
	return nil
}

func (r *KNNRegressor) validate() error {
	if err := r.Scaler.validate(); err != nil {
		return err
	}
	if r.K <= 0 {
		return fmt.Errorf("knn k must be positive, got %d", r.K)
	}
	if len(r.Targets) != len(r.Points) {
		return fmt.Errorf("%w: %d points but %d targets", ErrDimension, len(r.Points), len(r.Targets))
	}
	for i, p := range r.Points {
		if len(p) != len(r.Scaler.Mean) {
			return fmt.Errorf("%w: point %d has %d features, scaler has %d", ErrDimension, i, len(p), len(r.Scaler.Mean))
		}
	}
	return nil
}

func (r *KNNRegressor) Predict(x []float64) (float64, error) {
	if len(r.Points) == 0 {
		return 0, errors.New("knn model has no points")
	}
	scaled, err := r.Scaler.Transform(x)
	if err != nil {
		return 0, err
	}

	type neighbour struct {
		dist   float64
		target float64
	}
	neighbours := make([]neighbour, len(r.Points))
	for i, p := range r.Points {
		neighbours[i] = neighbour{dist: floats.Distance(p, scaled, 2), target: r.Targets[i]}
	}
	sort.Slice(neighbours, func(i, j int) bool { return neighbours[i].dist < neighbours[j].dist })

	k := min(r.K, len(neighbours))
	sum := 0.0
	for _, nb := range neighbours[:k] {
		sum += nb.target
	}
	return sum / float64(k), nil
}
