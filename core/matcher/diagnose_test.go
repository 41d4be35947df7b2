package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnose(t *testing.T) {
	feedback := Diagnose("In the begining God", "In the beginning God created")
	require.Len(t, feedback, 5)

	assert.Equal(t, WordExact, feedback[0].Status)
	assert.Equal(t, 1.0, feedback[0].Similarity)
	assert.Equal(t, WordClose, feedback[2].Status)
	assert.Equal(t, "begining", feedback[2].Given)
	assert.Equal(t, "beginning", feedback[2].Expected)
	assert.Equal(t, WordMissing, feedback[4].Status)
	assert.Equal(t, "created", feedback[4].Expected)
}

func TestDiagnose_ExtraAndWrong(t *testing.T) {
	feedback := Diagnose("Jesus slept soundly", "Jesus wept")
	require.Len(t, feedback, 3)

	assert.Equal(t, WordExact, feedback[0].Status)
	assert.NotEqual(t, WordExact, feedback[1].Status)
	assert.Equal(t, WordExtra, feedback[2].Status)
	assert.Equal(t, "soundly", feedback[2].Given)
}

func TestDiagnose_SoundsAlike(t *testing.T) {
	assert.True(t, soundsAlike("phat", "fat"))
	assert.False(t, soundsAlike("lamb", "wolf"))

	feedback := Diagnose("nite", "knight")
	require.Len(t, feedback, 1)
	assert.Equal(t, WordSoundsAlike, feedback[0].Status)
}

func TestDiagnose_Empty(t *testing.T) {
	assert.Empty(t, Diagnose("", ""))
}
