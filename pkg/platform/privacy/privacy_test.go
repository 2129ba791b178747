package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	a := Fingerprint("Jane.Doe@example.com")
	b := Fingerprint("  jane.doe@EXAMPLE.com ")

	assert.Len(t, a, 16)
	assert.Equal(t, a, b)
	assert.NotContains(t, a, "jane")
	assert.NotEqual(t, a, Fingerprint("john.doe@example.com"))
	assert.Empty(t, Fingerprint("   "))
}
