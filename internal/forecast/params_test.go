package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = FeatureParams{
	FeatureSize:  3,
	FastPeriod:   2,
	SlowPeriod:   4,
	SignalPeriod: 2,
	BBPeriod:     5,
}

func TestFeatureParams_Hash_Stable(t *testing.T) {
	p := testParams
	assert.Equal(t, p.Hash(), testParams.Hash())
	assert.Len(t, p.Hash(), 64)
}

func TestFeatureParams_Hash_ChangesWithEveryField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *FeatureParams)
	}{
		{"feature size", func(p *FeatureParams) { p.FeatureSize++ }},
		{"fast period", func(p *FeatureParams) { p.FastPeriod++ }},
		{"slow period", func(p *FeatureParams) { p.SlowPeriod++ }},
		{"signal period", func(p *FeatureParams) { p.SignalPeriod++ }},
		{"bb period", func(p *FeatureParams) { p.BBPeriod++ }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams
			tt.mutate(&p)
			assert.NotEqual(t, testParams.Hash(), p.Hash())
		})
	}
}

func TestHashRaw_IgnoresKeyOrder(t *testing.T) {
	raw := []byte(`{"slow_period":4,"fast_period":2,"bb_period":5,"signal_period":2,"feature_size":3}`)

	hash, err := HashRaw(raw)

	require.NoError(t, err)
	assert.Equal(t, testParams.Hash(), hash)
}

func TestHashRaw_InvalidJSON(t *testing.T) {
	_, err := HashRaw([]byte(`not json`))
	assert.Error(t, err)
}

func TestFeatureParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  FeatureParams
		wantErr bool
	}{
		{"valid", testParams, false},
		{"zero feature size", FeatureParams{0, 2, 4, 2, 5}, true},
		{"slow not above fast", FeatureParams{3, 4, 4, 2, 5}, true},
		{"zero signal", FeatureParams{3, 2, 4, 0, 5}, true},
		{"bb too short", FeatureParams{3, 2, 4, 2, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFeatureParams_RequiredInputSize(t *testing.T) {
	assert.Equal(t, 6, testParams.RequiredInputSize())
	assert.Equal(t, 20, FeatureParams{FeatureSize: 3, FastPeriod: 2, SlowPeriod: 4, SignalPeriod: 2, BBPeriod: 20}.RequiredInputSize())
}
