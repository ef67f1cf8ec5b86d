package helpers

import (
	"encoding/json"
	"math/rand"
	"strconv"

	"github.com/shopspring/decimal"
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyz"

// IntToString converts int to string.
func IntToString(i int) string {
	return strconv.Itoa(i)
}

// ToJsonString converts any value to JSON string.
func ToJsonString(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// RoundPrice rounds half away from zero to the given number of decimals.
func RoundPrice(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RandomToken returns n random lowercase letters.
func RandomToken(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = tokenAlphabet[rand.Intn(len(tokenAlphabet))]
	}
	return string(b)
}
