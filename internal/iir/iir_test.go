package iir_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomizedcoder/adcstream/internal/iir"
)

func TestDefault(t *testing.T) {
	f := iir.Default()
	assert.Equal(t, [iir.Order]float32{}, f.BA)
	assert.Equal(t, float32(-32768), f.YMin)
	assert.Equal(t, float32(32767), f.YMax)
	assert.NoError(t, f.Validate())
}

func TestValidate(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(-1))

	testCases := []struct {
		name string
		edit func(*iir.IIR)
	}{
		{"nan coefficient", func(f *iir.IIR) { f.BA[3] = nan }},
		{"inf offset", func(f *iir.IIR) { f.YOffset = inf }},
		{"nan limit", func(f *iir.IIR) { f.YMax = nan }},
		{"inverted limits", func(f *iir.IIR) { f.YMin, f.YMax = 10, -10 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := iir.Default()
			tc.edit(&f)
			assert.ErrorIs(t, f.Validate(), iir.ErrInvalid)
		})
	}
}

func TestBank(t *testing.T) {
	b := iir.NewBank(2)
	assert.Equal(t, 2, b.Len())

	pi := iir.IIR{BA: [iir.Order]float32{1.5, -0.5, 0, 1, 0}, YOffset: 3, YMin: -100, YMax: 100}
	require.NoError(t, b.Set(1, pi))

	got, err := b.Get(1)
	require.NoError(t, err)
	assert.Equal(t, pi, got)

	got, err = b.Get(0)
	require.NoError(t, err)
	assert.Equal(t, iir.Default(), got, "other channels untouched")
}

func TestBank_Rejects(t *testing.T) {
	b := iir.NewBank(1)

	assert.ErrorIs(t, b.Set(1, iir.Default()), iir.ErrNoChannel)
	_, err := b.Get(-1)
	assert.ErrorIs(t, err, iir.ErrNoChannel)

	bad := iir.Default()
	bad.YMin = 1
	bad.YMax = 0
	assert.ErrorIs(t, b.Set(0, bad), iir.ErrInvalid)

	got, err := b.Get(0)
	require.NoError(t, err)
	assert.Equal(t, iir.Default(), got, "rejected set leaves the channel unchanged")
}
