package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEasing(t *testing.T) {
	linear, err := Easing("")
	require.NoError(t, err)
	assert.Equal(t, 0.25, linear(0.25))

	for _, name := range EasingNames() {
		f, err := Easing(name)
		require.NoError(t, err, name)
		assert.InDelta(t, 0.0, f(0), 1e-9, name)
		assert.InDelta(t, 1.0, f(1), 1e-9, name)
	}

	_, err = Easing("bounce")
	assert.Error(t, err)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("SENSORAR_TEST_VALUE", "")
	assert.Equal(t, "fallback", GetEnv("SENSORAR_TEST_VALUE", "fallback"))

	t.Setenv("SENSORAR_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("SENSORAR_TEST_VALUE", "fallback"))
}
