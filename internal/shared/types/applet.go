package types

import "fmt"

// AppletID identifies an applet. Values with the 0x100 bit are system applets,
// 0x200 system library applets, 0x300 applications and 0x400 library applets.
type AppletID uint32

const (
	AppletNone AppletID = 0

	AppletAnySystemApplet   AppletID = 0x100
	AppletHomeMenu          AppletID = 0x101
	AppletAlternateMenu     AppletID = 0x103
	AppletCamera            AppletID = 0x110
	AppletFriendList        AppletID = 0x112
	AppletGameNotes         AppletID = 0x113
	AppletInternetBrowser   AppletID = 0x114
	AppletInstructionManual AppletID = 0x115
	AppletNotifications     AppletID = 0x116
	AppletMiiverse          AppletID = 0x117
	AppletMiiversePost      AppletID = 0x118
	AppletAmiiboSettings    AppletID = 0x119

	AppletAnySysLibraryApplet AppletID = 0x200
	AppletSoftwareKeyboard1   AppletID = 0x201
	AppletEd1                 AppletID = 0x202
	AppletPnoteApp            AppletID = 0x204
	AppletSnoteApp            AppletID = 0x205
	AppletError               AppletID = 0x206
	AppletMint                AppletID = 0x207
	AppletExtrapad            AppletID = 0x208
	AppletMemolib             AppletID = 0x209

	AppletApplication AppletID = 0x300
	AppletTiger       AppletID = 0x301

	AppletAnyLibraryApplet  AppletID = 0x400
	AppletSoftwareKeyboard2 AppletID = 0x401
	AppletEd2               AppletID = 0x402
	AppletPnoteApp2         AppletID = 0x404
	AppletSnoteApp2         AppletID = 0x405
	AppletError2            AppletID = 0x406
	AppletMint2             AppletID = 0x407
	AppletExtrapad2         AppletID = 0x408
	AppletMemolib2          AppletID = 0x409
)

var appletNames = map[AppletID]string{
	AppletNone:                "None",
	AppletAnySystemApplet:     "AnySystemApplet",
	AppletHomeMenu:            "HomeMenu",
	AppletAlternateMenu:       "AlternateMenu",
	AppletCamera:              "Camera",
	AppletFriendList:          "FriendList",
	AppletGameNotes:           "GameNotes",
	AppletInternetBrowser:     "InternetBrowser",
	AppletInstructionManual:   "InstructionManual",
	AppletNotifications:       "Notifications",
	AppletMiiverse:            "Miiverse",
	AppletMiiversePost:        "MiiversePost",
	AppletAmiiboSettings:      "AmiiboSettings",
	AppletAnySysLibraryApplet: "AnySysLibraryApplet",
	AppletSoftwareKeyboard1:   "SoftwareKeyboard1",
	AppletEd1:                 "Ed1",
	AppletPnoteApp:            "PnoteApp",
	AppletSnoteApp:            "SnoteApp",
	AppletError:               "Error",
	AppletMint:                "Mint",
	AppletExtrapad:            "Extrapad",
	AppletMemolib:             "Memolib",
	AppletApplication:         "Application",
	AppletTiger:               "Tiger",
	AppletAnyLibraryApplet:    "AnyLibraryApplet",
	AppletSoftwareKeyboard2:   "SoftwareKeyboard2",
	AppletEd2:                 "Ed2",
	AppletPnoteApp2:           "PnoteApp2",
	AppletSnoteApp2:           "SnoteApp2",
	AppletError2:              "Error2",
	AppletMint2:               "Mint2",
	AppletExtrapad2:           "Extrapad2",
	AppletMemolib2:            "Memolib2",
}

// String returns the applet name followed by its hex id.
func (id AppletID) String() string {
	if name, ok := appletNames[id]; ok {
		return fmt.Sprintf("%s(0x%03X)", name, uint32(id))
	}
	return fmt.Sprintf("0x%03X", uint32(id))
}

// IsSystemApplet reports whether the id lies in the system applet range.
func (id AppletID) IsSystemApplet() bool {
	return id&0x100 != 0
}

// IsApplication reports whether the id lies in the application range.
func (id AppletID) IsApplication() bool {
	return id&0x300 != 0
}

// AppletPos is the position category an applet declares in its attributes.
type AppletPos uint8

const (
	PosApplication AppletPos = 0
	PosLibrary     AppletPos = 1
	PosSystem      AppletPos = 2
	PosSysLibrary  AppletPos = 3
	PosResident    AppletPos = 4
	PosAutoLibrary AppletPos = 5
	PosInvalid     AppletPos = 0xFF
)

func (p AppletPos) String() string {
	switch p {
	case PosApplication:
		return "Application"
	case PosLibrary:
		return "Library"
	case PosSystem:
		return "System"
	case PosSysLibrary:
		return "SysLibrary"
	case PosResident:
		return "Resident"
	case PosAutoLibrary:
		return "AutoLibrary"
	case PosInvalid:
		return "Invalid"
	default:
		return fmt.Sprintf("Pos(%d)", uint8(p))
	}
}

// Attributes is the raw launch attribute word of an applet.
//
//	bits 0-2  position category
//	bit 28    no exit on system applet
//	bit 29    is home menu
type Attributes uint32

const (
	attrPosMask           Attributes = 0x7
	attrNoExitOnSysApplet Attributes = 1 << 28
	attrIsHomeMenu        Attributes = 1 << 29
)

// NewAttributes builds an attribute word from its fields.
func NewAttributes(pos AppletPos, isHomeMenu, noExitOnSystemApplet bool) Attributes {
	a := Attributes(pos) & attrPosMask
	if isHomeMenu {
		a |= attrIsHomeMenu
	}
	if noExitOnSystemApplet {
		a |= attrNoExitOnSysApplet
	}
	return a
}

// Pos returns the declared position category.
func (a Attributes) Pos() AppletPos {
	return AppletPos(a & attrPosMask)
}

// WithPos returns a copy of the attributes with the position replaced.
func (a Attributes) WithPos(pos AppletPos) Attributes {
	return (a &^ attrPosMask) | (Attributes(pos) & attrPosMask)
}

// IsHomeMenu reports the home menu flag.
func (a Attributes) IsHomeMenu() bool {
	return a&attrIsHomeMenu != 0
}

// NoExitOnSystemApplet reports the no-exit-on-system-applet flag.
func (a Attributes) NoExitOnSystemApplet() bool {
	return a&attrNoExitOnSysApplet != 0
}

// Raw returns the attribute word as a plain integer.
func (a Attributes) Raw() uint32 {
	return uint32(a)
}

// SignalType tags the intent of a parameter sent between applets.
type SignalType uint32

const (
	SignalNone                      SignalType = 0x0
	SignalWakeup                    SignalType = 0x1
	SignalRequest                   SignalType = 0x2
	SignalResponse                  SignalType = 0x3
	SignalExit                      SignalType = 0x4
	SignalMessage                   SignalType = 0x5
	SignalHomeButtonSingle          SignalType = 0x6
	SignalHomeButtonDouble          SignalType = 0x7
	SignalDspSleep                  SignalType = 0x8
	SignalDspWakeup                 SignalType = 0x9
	SignalWakeupByExit              SignalType = 0xA
	SignalWakeupByPause             SignalType = 0xB
	SignalWakeupByCancel            SignalType = 0xC
	SignalWakeupByCancelAll         SignalType = 0xD
	SignalWakeupByPowerButtonClick  SignalType = 0xE
	SignalWakeupToJumpHome          SignalType = 0xF
	SignalRequestForSysApplet       SignalType = 0x10
	SignalWakeupToLaunchApplication SignalType = 0x11
)

var signalNames = [...]string{
	"None", "Wakeup", "Request", "Response", "Exit", "Message",
	"HomeButtonSingle", "HomeButtonDouble", "DspSleep", "DspWakeup",
	"WakeupByExit", "WakeupByPause", "WakeupByCancel", "WakeupByCancelAll",
	"WakeupByPowerButtonClick", "WakeupToJumpHome", "RequestForSysApplet",
	"WakeupToLaunchApplication",
}

func (s SignalType) String() string {
	if int(s) < len(signalNames) {
		return signalNames[s]
	}
	return fmt.Sprintf("Signal(%d)", uint32(s))
}

// Notification is a broadcast event delivered to an applet slot.
type Notification uint32

const (
	NotificationNone                 Notification = 0
	NotificationHomeButtonSingle     Notification = 1
	NotificationHomeButtonDouble     Notification = 2
	NotificationSleepQuery           Notification = 3
	NotificationSleepCancelledByOpen Notification = 4
	NotificationSleepAccepted        Notification = 5
	NotificationSleepAwake           Notification = 6
	NotificationShutdown             Notification = 7
	NotificationPowerButtonClick     Notification = 8
	NotificationPowerButtonClear     Notification = 9
	NotificationTrySleep             Notification = 10
	NotificationOrderToClose         Notification = 11
)

var notificationNames = [...]string{
	"None", "HomeButtonSingle", "HomeButtonDouble", "SleepQuery",
	"SleepCancelledByOpen", "SleepAccepted", "SleepAwake", "Shutdown",
	"PowerButtonClick", "PowerButtonClear", "TrySleep", "OrderToClose",
}

func (n Notification) String() string {
	if int(n) < len(notificationNames) {
		return notificationNames[n]
	}
	return fmt.Sprintf("Notification(%d)", uint32(n))
}

// MediaType is the storage medium a title is launched from.
type MediaType uint8

const (
	MediaNAND     MediaType = 0
	MediaSDMC     MediaType = 1
	MediaGameCard MediaType = 2
)

func (m MediaType) String() string {
	switch m {
	case MediaNAND:
		return "NAND"
	case MediaSDMC:
		return "SDMC"
	case MediaGameCard:
		return "GameCard"
	default:
		return fmt.Sprintf("Media(%d)", uint8(m))
	}
}

// TargetPlatform is the console model reported to applications.
type TargetPlatform uint8

const (
	PlatformOld3DS TargetPlatform = 0
	PlatformNew3DS TargetPlatform = 1
)

// ApplicationRunningMode describes the model and registration of the application.
type ApplicationRunningMode uint8

const (
	RunningModeNoApplication      ApplicationRunningMode = 0
	RunningModeOld3DSRegistered   ApplicationRunningMode = 1
	RunningModeNew3DSRegistered   ApplicationRunningMode = 2
	RunningModeOld3DSUnregistered ApplicationRunningMode = 3
	RunningModeNew3DSUnregistered ApplicationRunningMode = 4
)

// ApplicationJumpFlags selects which deliver arguments survive a jump.
type ApplicationJumpFlags uint8

const (
	JumpUseInputParameters   ApplicationJumpFlags = 0
	JumpUseStoredParameters  ApplicationJumpFlags = 1
	JumpUseCurrentParameters ApplicationJumpFlags = 2
)

// Handle is a weak reference into the kernel's signal object table.
type Handle uint32

// InvalidHandle is never issued by the kernel table.
const InvalidHandle Handle = 0
