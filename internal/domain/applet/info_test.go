package applet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

func TestTitleIDFor(t *testing.T) {
	cases := []struct {
		name   string
		titles RegionTitles
		id     types.AppletID
		want   uint64
	}{
		{"home menu", RegionTitles{Region: 0}, types.AppletHomeMenu, 0x4003000008202},
		{"second id of a pair", RegionTitles{Region: 1}, types.AppletSoftwareKeyboard2, 0x400300000C802},
		{"new 3ds override", RegionTitles{Region: 0, New3DS: true}, types.AppletInternetBrowser, 0x4003020008802},
		{"new 3ds without override", RegionTitles{Region: 4, New3DS: true}, types.AppletInternetBrowser, 0x400300000A602},
		{"old 3ds ignores override", RegionTitles{Region: 0}, types.AppletInternetBrowser, 0x4003000008802},
		{"last region", RegionTitles{Region: NumRegions - 1}, types.AppletMemolib, 0x400300000F602},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.titles.TitleIDFor(tc.id)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTitleIDForErrors(t *testing.T) {
	_, err := RegionTitles{Region: NumRegions}.TitleIDFor(types.AppletHomeMenu)
	assert.Error(t, err)
	_, err = RegionTitles{Region: -1}.TitleIDFor(types.AppletHomeMenu)
	assert.Error(t, err)
	_, err = RegionTitles{}.TitleIDFor(types.AppletNone)
	assert.Error(t, err)
	_, err = RegionTitles{}.TitleIDFor(types.AppletApplication)
	assert.Error(t, err)
}

func TestTitleMediaType(t *testing.T) {
	assert.Equal(t, types.MediaSDMC, TitleMediaType(gameTitle))
	assert.Equal(t, types.MediaNAND, TitleMediaType(0x0004001000021000), "system category")
	assert.Equal(t, types.MediaNAND, TitleMediaType(0x4003000008202), "system applet")
	assert.Equal(t, types.MediaNAND, TitleMediaType(0x0005000000055D00), "foreign platform")
	assert.Equal(t, uint64(0x0004000E00055D00), UpdateTitleID(gameTitle))
}

func TestAppletManInfo(t *testing.T) {
	h := newHarness(t, Options{})
	info := h.AppletManInfo(types.PosApplication)
	assert.Equal(t, types.AppletManInfo{
		ActivePos:   types.PosInvalid,
		RequestedID: types.AppletNone,
		HomeMenuID:  types.AppletHomeMenu,
		ActiveID:    types.AppletNone,
	}, info)

	h.startApplication(t)
	h.register(t, types.AppletHomeMenu, homeAttrs)
	info = h.AppletManInfo(types.PosSystem)
	assert.Equal(t, types.PosApplication, info.ActivePos)
	assert.Equal(t, types.AppletApplication, info.ActiveID)
	assert.Equal(t, types.AppletHomeMenu, info.RequestedID)

	info = h.AppletManInfo(types.PosLibrary)
	assert.Equal(t, types.AppletNone, info.RequestedID)
}

func TestAppletInfo(t *testing.T) {
	h := newHarness(t, Options{})
	_, err := h.AppletInfo(types.AppletApplication)
	assert.ErrorIs(t, err, ErrNotFound)

	h.kernel.SetCurrentProgramID(gameTitle)
	h.startApplication(t)
	info, err := h.AppletInfo(types.AppletApplication)
	require.NoError(t, err)
	assert.Equal(t, gameTitle, info.TitleID)
	assert.Equal(t, types.MediaSDMC, info.MediaType)
	assert.True(t, info.Registered)
	assert.Equal(t, appAttrs, info.Attributes)
}

func TestCheckApplicationMedia(t *testing.T) {
	h := newHarness(t, Options{})
	_, err := h.CheckApplicationMedia(0)
	assert.ErrorIs(t, err, ErrAppNotRunning)

	h.kernel.SetCurrentProgramID(gameTitle)
	h.startApplication(t)

	_, err = h.CheckApplicationMedia(0x80)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	for in, want := range map[uint8]types.MediaType{
		0x00: types.MediaSDMC,
		0x01: types.MediaSDMC,
		0x40: types.MediaNAND,
		0x42: types.MediaNAND,
	} {
		got, err := h.CheckApplicationMedia(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, "probe 0x%02X", in)
	}
}

func TestTargetPlatform(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, types.PlatformOld3DS, h.TargetPlatform())

	h = newHarness(t, Options{New3DS: true})
	assert.Equal(t, types.PlatformNew3DS, h.TargetPlatform())
	h.BlockNew3DSMode()
	assert.Equal(t, types.PlatformOld3DS, h.TargetPlatform())
}

func TestApplicationRunningMode(t *testing.T) {
	h := homeActive(t)
	assert.Equal(t, types.RunningModeNoApplication, h.ApplicationRunningMode())

	_, _, err := h.Initialize(types.AppletApplication, appAttrs)
	require.NoError(t, err)
	assert.Equal(t, types.RunningModeOld3DSUnregistered, h.ApplicationRunningMode())
	require.NoError(t, h.Enable(appAttrs))
	assert.Equal(t, types.RunningModeOld3DSRegistered, h.ApplicationRunningMode())

	h = newHarness(t, Options{New3DS: true, Enable804MHz: true})
	h.register(t, types.AppletHomeMenu, homeAttrs)
	_, _, err = h.Initialize(types.AppletApplication, appAttrs)
	require.NoError(t, err)
	assert.Equal(t, types.RunningModeNew3DSUnregistered, h.ApplicationRunningMode())
	require.NoError(t, h.Enable(appAttrs))
	assert.Equal(t, types.RunningModeNew3DSRegistered, h.ApplicationRunningMode())

	h.BlockNew3DSMode()
	assert.Equal(t, types.RunningModeOld3DSRegistered, h.ApplicationRunningMode())

	h = newHarness(t, Options{New3DS: true})
	h.startApplication(t)
	assert.Equal(t, types.RunningModeOld3DSRegistered, h.ApplicationRunningMode(), "no fast cpu")
}

func TestCaptureBufferInfo(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, []byte{}, h.ReceiveCaptureBufferInfo())

	assert.ErrorIs(t, h.SendCaptureBufferInfo([]byte{1}), ErrProtocolViolation)

	buf := types.CaptureBufferInfo{Size: 0x46500, TopLeft: 0x10}.Bytes()
	require.NoError(t, h.SendCaptureBufferInfo(buf))
	assert.ErrorIs(t, h.SendCaptureBufferInfo(buf), ErrProtocolViolation)

	assert.Equal(t, buf, h.ReceiveCaptureBufferInfo())
	assert.Equal(t, []byte{}, h.ReceiveCaptureBufferInfo())

	_, ok := h.CaptureInfo()
	assert.False(t, ok)
}

func TestPrepareToStartApplicationClearsCaptureBuffer(t *testing.T) {
	h := homeActive(t)
	require.NoError(t, h.SendCaptureBufferInfo(make([]byte, types.CaptureBufferInfoSize)))
	require.NoError(t, h.PrepareToStartApplication(gameTitle, types.MediaSDMC))
	assert.Equal(t, []byte{}, h.ReceiveCaptureBufferInfo())
}
