package util

import (
	"fmt"
	"os"
	"sort"

	"github.com/fogleman/ease"
)

var easings = map[string]func(float64) float64{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
}

// Easing looks up an easing curve by name. An empty name is linear.
func Easing(name string) (func(float64) float64, error) {
	if name == "" {
		return ease.Linear, nil
	}
	f, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return f, nil
}

// EasingNames lists the curves known to Easing.
func EasingNames() []string {
	names := make([]string, 0, len(easings))
	for n := range easings {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// GetEnv returns the environment variable key, or fallback when it is unset
// or empty.
func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
