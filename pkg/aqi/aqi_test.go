package aqi

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatePM25(t *testing.T) {
	tests := []struct {
		pm25 float64
		want int32
	}{
		{0, 0},
		{-3, 0},
		{math.NaN(), 0},
		{9.0, 50},
		{9.05, 50},
		{12.0, 56},
		{35.4, 100},
		{55.4, 150},
		{100, 182},
		{325.4, 500},
		{900, 500},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CalculatePM25(tt.pm25), "pm25=%v", tt.pm25)
	}
}

func TestCalculatePM10(t *testing.T) {
	assert.Equal(t, int32(50), CalculatePM10(54))
	assert.Equal(t, int32(50), CalculatePM10(54.5))
	assert.Equal(t, int32(51), CalculatePM10(55))
	assert.Equal(t, int32(100), CalculatePM10(154))
	assert.Equal(t, int32(500), CalculatePM10(700))
}

func TestGetCategory(t *testing.T) {
	assert.Equal(t, "Good", GetCategory(CalculatePM25(5)))
	assert.Equal(t, "Moderate", GetCategory(CalculatePM25(20)))
	assert.Equal(t, "Unhealthy", GetCategory(CalculatePM25(80)))
	assert.Equal(t, "Hazardous", GetCategory(CalculatePM25(400)))
	assert.Equal(t, "#00e400", GetCategoryColor(10))
}
