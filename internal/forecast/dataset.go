package forecast

import (
	"bin-option/internal/models"
	"math/rand/v2"
)

// DatasetConfig параметры нарезки котировок на обучающие примеры
type DatasetConfig struct {
	InputSize int
	Offset    int
	Stride    int
}

// BuildDataset окно из InputSize курсов, истина - курс через Offset шагов после конца окна.
// Окна, где больше половины значений повторяют предыдущее, пропускаются (рынок стоял).
func BuildDataset(rates []float64, cfg DatasetConfig) []models.TrainingSample {
	stride := max(cfg.Stride, 1)
	if cfg.InputSize <= 0 || cfg.Offset <= 0 {
		return nil
	}

	var samples []models.TrainingSample
	for start := 0; start+cfg.InputSize-1+cfg.Offset < len(rates); start += stride {
		window := rates[start : start+cfg.InputSize]
		if isFlat(window) {
			continue
		}
		samples = append(samples, models.TrainingSample{
			Input: append([]float64(nil), window...),
			Truth: rates[start+cfg.InputSize-1+cfg.Offset],
		})
	}
	return samples
}

func isFlat(window []float64) bool {
	unchanged := 0
	for i := 1; i < len(window); i++ {
		if window[i] == window[i-1] {
			unchanged++
		}
	}
	return unchanged*2 > len(window)
}

// Split перемешивает примеры и отделяет testRatio долю под тест (минимум один пример в каждой части)
func Split(samples []models.TrainingSample, testRatio float64, rng *rand.Rand) (train, test []models.TrainingSample) {
	shuffled := append([]models.TrainingSample(nil), samples...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	testSize := int(float64(len(shuffled)) * testRatio)
	if testSize < 1 && len(shuffled) > 1 {
		testSize = 1
	}
	if testSize >= len(shuffled) {
		testSize = len(shuffled) - 1
	}
	if testSize < 0 {
		testSize = 0
	}
	return shuffled[testSize:], shuffled[:testSize]
}
