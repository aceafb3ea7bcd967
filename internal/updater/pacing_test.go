package updater_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/packetflux/agentx-subagent/internal/updater"
)

func TestNextIntervalExamples(t *testing.T) {
	cases := []struct {
		delta float64
		t     int
		want  int
	}{
		{0.4, 5, 5},
		{0.87, 5, 9},
		{18.88, 5, 60},
		{-1e-6, 5, 5},
		{0, 5, 5},
	}
	for _, tc := range cases {
		got := updater.NextInterval(tc.delta, tc.t)
		assert.Equal(t, tc.want, got, "delta=%v t=%v", tc.delta, tc.t)
	}
}

func TestNextIntervalInvariant(t *testing.T) {
	for _, delta := range []float64{0, 0.01, 1, 5, 5.9, 6, 59, 59.99, 60, 100} {
		got := updater.NextInterval(delta, 5)
		assert.GreaterOrEqual(t, got, 5)
		assert.LessOrEqual(t, got, updater.MaxInterval)
	}
}
