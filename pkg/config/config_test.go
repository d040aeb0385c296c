package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("BH_STR", "value")
	t.Setenv("BH_INT", "42")
	t.Setenv("BH_BAD_INT", "forty-two")
	t.Setenv("BH_DUR", "250ms")
	t.Setenv("BH_BAD_DUR", "-1s")

	assert.Equal(t, "value", EnvDefault("BH_STR", "def"))
	assert.Equal(t, "def", EnvDefault("BH_MISSING", "def"))
	assert.Equal(t, 42, EnvIntDefault("BH_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("BH_BAD_INT", 1))
	assert.Equal(t, 250*time.Millisecond, EnvDurationDefault("BH_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("BH_BAD_DUR", time.Second))
	assert.Equal(t, time.Second, EnvDurationDefault("BH_MISSING", time.Second))
}
