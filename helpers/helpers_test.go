package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundPrice(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{1950.435, 1950.44},
		{1950.434, 1950.43},
		{0.005, 0.01},
		{64123.1, 64123.1},
		{-1.255, -1.26},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, RoundPrice(tt.in, 2), "RoundPrice(%v)", tt.in)
	}
}

func TestRandomToken(t *testing.T) {
	a := RandomToken(12)
	b := RandomToken(12)

	assert.Len(t, a, 12)
	assert.Regexp(t, "^[a-z]{12}$", a)
	assert.NotEqual(t, a, b)
}

func TestToJsonString(t *testing.T) {
	assert.Equal(t, `{"m":"set_auth_token","p":[""]}`, ToJsonString(map[string]interface{}{
		"m": "set_auth_token",
		"p": []string{""},
	}))
	assert.Equal(t, "", ToJsonString(make(chan int)))
}
