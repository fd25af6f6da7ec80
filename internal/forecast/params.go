package forecast

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FeatureParams настройки признаков, по которым строится вход регрессора
type FeatureParams struct {
	FeatureSize  int `json:"feature_size"`
	FastPeriod   int `json:"fast_period"`
	SlowPeriod   int `json:"slow_period"`
	SignalPeriod int `json:"signal_period"`
	BBPeriod     int `json:"bb_period"`
}

func (p FeatureParams) Validate() error {
	switch {
	case p.FeatureSize < 1:
		return fmt.Errorf("feature_size must be positive, got %d", p.FeatureSize)
	case p.FastPeriod < 1:
		return fmt.Errorf("fast_period must be positive, got %d", p.FastPeriod)
	case p.SlowPeriod <= p.FastPeriod:
		return fmt.Errorf("slow_period (%d) must exceed fast_period (%d)", p.SlowPeriod, p.FastPeriod)
	case p.SignalPeriod < 1:
		return fmt.Errorf("signal_period must be positive, got %d", p.SignalPeriod)
	case p.BBPeriod < 2:
		return fmt.Errorf("bb_period must be at least 2, got %d", p.BBPeriod)
	}
	return nil
}

// RequiredInputSize минимальная длина истории для этих параметров
func (p FeatureParams) RequiredInputSize() int {
	return max(p.FeatureSize+1, p.SlowPeriod+p.SignalPeriod, p.BBPeriod)
}

// canonical map keys are sorted by encoding/json, so the encoding is stable
func (p FeatureParams) canonical() map[string]int {
	return map[string]int{
		"bb_period":     p.BBPeriod,
		"fast_period":   p.FastPeriod,
		"feature_size":  p.FeatureSize,
		"signal_period": p.SignalPeriod,
		"slow_period":   p.SlowPeriod,
	}
}

func (p FeatureParams) MarshalCanonical() ([]byte, error) {
	return json.Marshal(p.canonical())
}

// Hash hex(SHA-256) канонического JSON
func (p FeatureParams) Hash() string {
	raw, err := p.MarshalCanonical()
	if err != nil {
		// map[string]int always encodes
		panic(err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// HashRaw хеш параметров, сохраненных как произвольный JSON-объект
func HashRaw(raw []byte) (string, error) {
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("decode feature params: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("encode feature params: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
