package alphabet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModIsNonNegative(t *testing.T) {
	assert.Equal(t, 25, Mod(-1, 26))
	assert.Equal(t, 0, Mod(-26, 26))
	assert.Equal(t, 3, Mod(29, 26))
}

func TestShiftPreservesCase(t *testing.T) {
	assert.Equal(t, 'B', Shift('A', 1))
	assert.Equal(t, 'z', Shift('a', -1))
	assert.Equal(t, '!', Shift('!', 5))
	assert.Equal(t, 'é', Shift('é', 5))
}

func TestLettersOnlyUpper(t *testing.T) {
	assert.Equal(t, "HELLOWORLD", LettersOnlyUpper("Hello, World! 42"))
	assert.Equal(t, "", LettersOnlyUpper("123 -- ?"))
}

func TestIndicesAndCounts(t *testing.T) {
	assert.Equal(t, []byte{0, 1, 25}, Indices("a-B z"))
	counts := CountLetters("Aa b!")
	assert.Equal(t, 2, counts[0])
	assert.Equal(t, 1, counts[1])
	assert.Equal(t, 0, counts[2])
}
