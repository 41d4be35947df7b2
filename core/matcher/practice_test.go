package matcher

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitLines(t *testing.T) {
	lines := SplitLines(genesis11, 5)
	assert.Equal(t, []string{
		"In the beginning God created",
		"the heaven and the earth.",
	}, lines)

	assert.Equal(t, []string{"Jesus wept."}, SplitLines("Jesus wept.", 0))
	assert.Empty(t, SplitLines("   ", 5))
	assert.Len(t, SplitLines("a b c d e f g", 3), 3)
}

func TestRevealHint(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	revealed := map[int]bool{}

	for range 10 {
		idx := RevealHint(genesis11, revealed, rng)
		require.GreaterOrEqual(t, idx, 0)
		require.False(t, revealed[idx], "index %d revealed twice", idx)
		revealed[idx] = true
	}

	assert.Equal(t, -1, RevealHint(genesis11, revealed, rng))
	assert.Equal(t, -1, RevealHint("", nil, rng))
}

func TestMaskText(t *testing.T) {
	assert.Equal(t, "____ ____", MaskText("Jesus wept.", nil))
	assert.Equal(t, "Jesus ____", MaskText("Jesus wept.", map[int]bool{0: true}))
}
