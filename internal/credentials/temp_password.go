package credentials

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// Word lists for memorable temporary passwords handed to new staff accounts
var firstWords = []string{
	"amber", "cedar", "coral", "ember", "frost", "harbor", "ivory", "jasper",
	"linen", "maple", "meadow", "olive", "pebble", "quartz", "river", "saffron",
	"silver", "slate", "spruce", "summit", "timber", "velvet", "willow", "zephyr",
}

var secondWords = []string{
	"anchor", "beacon", "bridge", "candle", "compass", "garden", "harvest", "lantern",
	"orchard", "path", "shelter", "spring", "stone", "tower", "valley", "well",
}

// TemporaryPasswordDigits is the length of the numeric suffix
const TemporaryPasswordDigits = 4

// GenerateTemporaryPassword returns a password like "Cedar-Lantern-4821".
// It always satisfies the staff password length rule.
func GenerateTemporaryPassword() (string, error) {
	first, err := randomElement(firstWords)
	if err != nil {
		return "", err
	}
	second, err := randomElement(secondWords)
	if err != nil {
		return "", err
	}

	max := big.NewInt(1)
	for i := 0; i < TemporaryPasswordDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("failed to generate password digits: %w", err)
	}

	return fmt.Sprintf("%s-%s-%0*d", capitalize(first), capitalize(second), TemporaryPasswordDigits, n.Int64()), nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// randomElement picks a random element from a string slice
func randomElement(slice []string) (string, error) {
	if len(slice) == 0 {
		return "", nil
	}

	num, err := rand.Int(rand.Reader, big.NewInt(int64(len(slice))))
	if err != nil {
		return "", err
	}

	return slice[num.Int64()], nil
}
