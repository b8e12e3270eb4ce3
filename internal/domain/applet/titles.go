package applet

import (
	"fmt"

	"github.com/GriffinCanCode/AppletOS/backend/internal/shared/types"
)

// NumRegions is the number of console regions with their own applet titles.
const NumRegions = 7

type appletTitles struct {
	ids  [2]types.AppletID
	tids [NumRegions]uint64
	// New 3DS overrides; zero keeps the regular title.
	n3ds [NumRegions]uint64
}

var appletTitleTable = [...]appletTitles{
	{ids: [2]types.AppletID{types.AppletHomeMenu}, tids: [NumRegions]uint64{
		0x4003000008202, 0x4003000008F02, 0x4003000009802, 0x4003000008202, 0x400300000A102, 0x400300000A902, 0x400300000B102}},
	{ids: [2]types.AppletID{types.AppletAlternateMenu}, tids: [NumRegions]uint64{
		0x4003000008102, 0x4003000008102, 0x4003000008102, 0x4003000008102, 0x4003000008102, 0x4003000008102, 0x4003000008102}},
	{ids: [2]types.AppletID{types.AppletCamera}, tids: [NumRegions]uint64{
		0x4003000008402, 0x4003000009002, 0x4003000009902, 0x4003000008402, 0x400300000A202, 0x400300000AA02, 0x400300000B202}},
	{ids: [2]types.AppletID{types.AppletFriendList}, tids: [NumRegions]uint64{
		0x4003000008D02, 0x4003000009602, 0x4003000009F02, 0x4003000008D02, 0x400300000A702, 0x400300000AF02, 0x400300000B702}},
	{ids: [2]types.AppletID{types.AppletGameNotes}, tids: [NumRegions]uint64{
		0x4003000008702, 0x4003000009302, 0x4003000009C02, 0x4003000008702, 0x400300000A502, 0x400300000AD02, 0x400300000B502}},
	{ids: [2]types.AppletID{types.AppletInternetBrowser}, tids: [NumRegions]uint64{
		0x4003000008802, 0x4003000009402, 0x4003000009D02, 0x4003000008802, 0x400300000A602, 0x400300000AE02, 0x400300000B602},
		n3ds: [NumRegions]uint64{
			0x4003020008802, 0x4003020009402, 0x4003020009D02, 0x4003020008802, 0, 0x400302000AE02, 0}},
	{ids: [2]types.AppletID{types.AppletInstructionManual}, tids: [NumRegions]uint64{
		0x4003000008602, 0x4003000009202, 0x4003000009B02, 0x4003000008602, 0x400300000A402, 0x400300000AC02, 0x400300000B402}},
	{ids: [2]types.AppletID{types.AppletNotifications}, tids: [NumRegions]uint64{
		0x4003000008E02, 0x4003000009702, 0x400300000A002, 0x4003000008E02, 0x400300000A802, 0x400300000B002, 0x400300000B802}},
	{ids: [2]types.AppletID{types.AppletMiiverse}, tids: [NumRegions]uint64{
		0x400300000BC02, 0x400300000BD02, 0x400300000BE02, 0x400300000BC02, 0x4003000009E02, 0x4003000009502, 0x400300000B902}},
	// From a firmware 4.5 dump.
	{ids: [2]types.AppletID{types.AppletMiiversePost}, tids: [NumRegions]uint64{
		0x400300000BA02, 0x400300000BA02, 0x400300000BA02, 0x400300000BA02, 0x400300000BA02, 0x400300000BA02, 0x400300000BA02}},
	{ids: [2]types.AppletID{types.AppletAmiiboSettings}, tids: [NumRegions]uint64{
		0x4003000009502, 0x4003000009E02, 0x400300000B902, 0x4003000009502, 0x0, 0x4003000008C02, 0x400300000BF02}},
	{ids: [2]types.AppletID{types.AppletSoftwareKeyboard1, types.AppletSoftwareKeyboard2}, tids: [NumRegions]uint64{
		0x400300000C002, 0x400300000C802, 0x400300000D002, 0x400300000C002, 0x400300000D802, 0x400300000DE02, 0x400300000E402}},
	{ids: [2]types.AppletID{types.AppletEd1, types.AppletEd2}, tids: [NumRegions]uint64{
		0x400300000C102, 0x400300000C902, 0x400300000D102, 0x400300000C102, 0x400300000D902, 0x400300000DF02, 0x400300000E502}},
	{ids: [2]types.AppletID{types.AppletPnoteApp, types.AppletPnoteApp2}, tids: [NumRegions]uint64{
		0x400300000C302, 0x400300000CB02, 0x400300000D302, 0x400300000C302, 0x400300000DB02, 0x400300000E102, 0x400300000E702}},
	{ids: [2]types.AppletID{types.AppletSnoteApp, types.AppletSnoteApp2}, tids: [NumRegions]uint64{
		0x400300000C402, 0x400300000CC02, 0x400300000D402, 0x400300000C402, 0x400300000DC02, 0x400300000E202, 0x400300000E802}},
	{ids: [2]types.AppletID{types.AppletError, types.AppletError2}, tids: [NumRegions]uint64{
		0x400300000C502, 0x400300000C502, 0x400300000C502, 0x400300000C502, 0x400300000CF02, 0x400300000CF02, 0x400300000CF02}},
	{ids: [2]types.AppletID{types.AppletMint, types.AppletMint2}, tids: [NumRegions]uint64{
		0x400300000C602, 0x400300000CE02, 0x400300000D602, 0x400300000C602, 0x400300000DD02, 0x400300000E302, 0x400300000E902}},
	{ids: [2]types.AppletID{types.AppletExtrapad, types.AppletExtrapad2}, tids: [NumRegions]uint64{
		0x400300000CD02, 0x400300000CD02, 0x400300000CD02, 0x400300000CD02, 0x400300000D502, 0x400300000D502, 0x400300000D502}},
	{ids: [2]types.AppletID{types.AppletMemolib, types.AppletMemolib2}, tids: [NumRegions]uint64{
		0x400300000F602, 0x400300000F602, 0x400300000F602, 0x400300000F602, 0x400300000F602, 0x400300000F602, 0x400300000F602}},
}

// RegionTitles resolves applet titles for one console region.
type RegionTitles struct {
	Region int
	New3DS bool
}

// TitleIDFor returns the native title of applet id in the configured region.
func (r RegionTitles) TitleIDFor(id types.AppletID) (uint64, error) {
	if id == types.AppletNone {
		return 0, fmt.Errorf("applet: no title for %s", id)
	}
	if r.Region < 0 || r.Region >= NumRegions {
		return 0, fmt.Errorf("applet: region %d out of range", r.Region)
	}
	for _, e := range appletTitleTable {
		if e.ids[0] != id && e.ids[1] != id {
			continue
		}
		if n := e.n3ds[r.Region]; n != 0 && r.New3DS {
			return n, nil
		}
		return e.tids[r.Region], nil
	}
	return 0, fmt.Errorf("applet: unknown applet id %s", id)
}

// TitleMediaType returns the media a title is installed on.
func TitleMediaType(titleID uint64) types.MediaType {
	platform := uint16(titleID >> 48)
	category := uint16(titleID >> 32)
	variation := uint8(titleID)

	if platform != 0x0004 {
		return types.MediaNAND
	}
	if category&0x10 != 0 || category&0x1 != 0 || variation&0x2 != 0 {
		return types.MediaNAND
	}
	return types.MediaSDMC
}

// UpdateTitleID returns the id of the update title for titleID.
func UpdateTitleID(titleID uint64) uint64 {
	return (titleID & 0xFFFFFFFF) | 0x0004000E<<32
}

func titleHex(tid uint64) string {
	return fmt.Sprintf("%016X", tid)
}
