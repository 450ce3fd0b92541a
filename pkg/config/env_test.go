package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Nil(t, CSV(" , ,"))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 ,"))
}

func TestEnvDefault(t *testing.T) {
	t.Setenv("SHOP_TEST_STR", "  value ")
	assert.Equal(t, "value", EnvDefault("SHOP_TEST_STR", "def"))
	assert.Equal(t, "def", EnvDefault("SHOP_TEST_UNSET", "def"))
}

func TestEnvIntDefault(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{raw: "", want: 30},
		{raw: "45", want: 45},
		{raw: " 45 ", want: 45},
		{raw: "abc", want: 30},
		{raw: "0", want: 30},
		{raw: "-5", want: 30},
	}
	for _, tt := range tests {
		t.Setenv("SHOP_TEST_INT", tt.raw)
		assert.Equal(t, tt.want, EnvIntDefault("SHOP_TEST_INT", 30), tt.raw)
	}
}

func TestEnvDuration(t *testing.T) {
	t.Setenv("SHOP_TEST_TTL", "5")
	assert.Equal(t, 5*time.Minute, EnvDuration("SHOP_TEST_TTL", time.Minute, 30))
	t.Setenv("SHOP_TEST_TTL", "")
	assert.Equal(t, 30*time.Second, EnvDuration("SHOP_TEST_TTL", time.Second, 30))
}

func TestRequired(t *testing.T) {
	t.Setenv("SHOP_TEST_A", "x")
	t.Setenv("SHOP_TEST_B", " ")
	t.Setenv("SHOP_TEST_C", "")

	assert.NoError(t, Required("SHOP_TEST_A"))
	err := Required("SHOP_TEST_A", "SHOP_TEST_B", "SHOP_TEST_C")
	assert.EqualError(t, err, "missing required env SHOP_TEST_B, SHOP_TEST_C")
}
