package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeProductName(t *testing.T) {
	tests := map[string]string{
		"Cola 330 ml":          "cola",
		"COLA 330ML":           "cola",
		"Çay":                  "cay",
		"  Crème   Brûlée  ":   "creme brulee",
		"Iced Tea 0,5 L":       "iced tea",
		"Fıstıklı Baklava 1kg": "fistikli baklava",
		"7 Up":                 "up",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeProductName(in), in)
	}
}
