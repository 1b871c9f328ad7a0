package theme

import (
	"testing"

	"einvoice/pkg/models"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lightness(t *testing.T, hex string) float64 {
	t.Helper()
	c, err := colorful.Hex(hex)
	require.NoError(t, err, hex)
	_, _, l := c.Hcl()
	return l
}

func TestDerive_Fallbacks(t *testing.T) {
	assert.Equal(t, Default, Derive(""))
	assert.Equal(t, Default, Derive("   "))
	assert.Equal(t, Default, Derive("not-a-colour"))
	assert.Equal(t, Default, Derive("#12345"))
}

func TestDerive_Tones(t *testing.T) {
	th := Derive("1565c0")

	assert.Equal(t, "#1565c0", th.Primary)
	assert.Equal(t, "#ffffff", th.TextOnPrimary)

	surface := lightness(t, th.InverseSurface)
	inverse := lightness(t, th.InversePrimary)
	container := lightness(t, th.SecondaryContainer)

	assert.Less(t, surface, 0.35)
	assert.Greater(t, inverse, surface)
	assert.Greater(t, container, 0.7)
}

func TestDerive_LightPrimaryGetsDarkText(t *testing.T) {
	assert.Equal(t, "#1c1b16", Derive("#f6efba").TextOnPrimary)
}

func TestStatusColor(t *testing.T) {
	th := Derive("#c0a801")
	assert.Equal(t, th.Primary, th.StatusColor(models.StatusPending))
	assert.NotEqual(t, th.StatusColor(models.StatusError), th.StatusColor(models.StatusSubmitted))
	assert.Equal(t, th.InverseSurface, th.StatusColor(""))
}
