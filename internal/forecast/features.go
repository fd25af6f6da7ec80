package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

const bollingerWidth = 2.0

// Features строит вектор признаков по истории курсов (последний элемент самый свежий).
// Состав: последние FeatureSize приращений, MACD и его сигнальная линия (относительно
// последнего курса), положение внутри полос Боллинджера и ширина полос.
func Features(rates []float64, p FeatureParams) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	n := len(rates)
	if n < p.RequiredInputSize() {
		return nil, fmt.Errorf("history has %d rates, need at least %d", n, p.RequiredInputSize())
	}

	last := rates[n-1]
	if last == 0 || !isFinite(last) {
		return nil, fmt.Errorf("last rate %v is not usable", last)
	}

	features := make([]float64, 0, p.FeatureSize+4)
	for i := 0; i < p.FeatureSize; i++ {
		features = append(features, rates[n-1-i]-rates[n-2-i])
	}

	fast := ema(rates, p.FastPeriod)
	slow := ema(rates, p.SlowPeriod)
	macd := make([]float64, n)
	for i := range rates {
		macd[i] = fast[i] - slow[i]
	}
	signal := ema(macd, p.SignalPeriod)
	features = append(features, macd[n-1], signal[n-1])

	window := rates[n-p.BBPeriod:]
	mean, std := stat.MeanStdDev(window, nil)
	position := 0.0
	if std > 0 {
		position = (last - mean) / (bollingerWidth * std)
	}
	features = append(features, position, std/last)

	for i, v := range features {
		if !isFinite(v) {
			return nil, fmt.Errorf("feature %d is not finite", i)
		}
	}
	return features, nil
}

// ema экспоненциальное скользящее среднее, первый элемент берется как есть
func ema(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / float64(period+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
