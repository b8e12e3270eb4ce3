package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevicesSetBeforeLoad(t *testing.T) {
	d := NewDevices()
	assert.Error(t, d.Set(Home, true))
}

func TestDevicesLoadAndSet(t *testing.T) {
	d := NewDevices()
	home, power := d.LoadButtons()

	require.NoError(t, d.Set(Home, true))
	assert.True(t, home.Pressed())
	assert.False(t, power.Pressed())

	require.NoError(t, d.Set(Power, true))
	assert.True(t, power.Pressed())

	home2, _ := d.LoadButtons()
	assert.False(t, home2.Pressed())
	assert.Equal(t, 2, d.Loads())
}

func TestParseName(t *testing.T) {
	n, err := ParseName("power")
	require.NoError(t, err)
	assert.Equal(t, Power, n)

	_, err = ParseName("start")
	assert.Error(t, err)
}
