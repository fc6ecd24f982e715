package proto

// ResultCode is the outcome of a registration or authorization exchange.
type ResultCode int32

const (
	ResultNone                 ResultCode = 0
	ResultUnsupported          ResultCode = 1
	ResultFalse                ResultCode = 2
	ResultTrue                 ResultCode = 3
	ResultTemporarilyUnavail   ResultCode = 4
	ResultBadCredentials       ResultCode = 5
	ResultLocationConflict     ResultCode = 6
	ResultChannelConflict      ResultCode = 7
	ResultDeviceDisabled       ResultCode = 8
	ResultLocationDisabled     ResultCode = 10
	ResultClientDisabled       ResultCode = 11
	ResultClientLimitExceeded  ResultCode = 12
	ResultDeviceLimitExceeded  ResultCode = 13
	ResultGUIDError            ResultCode = 14
	ResultRegistrationDisabled ResultCode = 17
	ResultAuthKeyError         ResultCode = 19
	ResultUnauthorized         ResultCode = 22
	ResultAuthorized           ResultCode = 23
	ResultNotAllowed           ResultCode = 24
	ResultChannelNotFound      ResultCode = 25
)

var resultCodeNames = map[ResultCode]string{
	ResultNone:                 "NONE",
	ResultUnsupported:          "UNSUPPORTED",
	ResultFalse:                "FALSE",
	ResultTrue:                 "TRUE",
	ResultTemporarilyUnavail:   "TEMPORARILY_UNAVAILABLE",
	ResultBadCredentials:       "BAD_CREDENTIALS",
	ResultLocationConflict:     "LOCATION_CONFLICT",
	ResultChannelConflict:      "CHANNEL_CONFLICT",
	ResultDeviceDisabled:       "DEVICE_DISABLED",
	ResultLocationDisabled:     "LOCATION_DISABLED",
	ResultClientDisabled:       "CLIENT_DISABLED",
	ResultClientLimitExceeded:  "CLIENT_LIMITEXCEEDED",
	ResultDeviceLimitExceeded:  "DEVICE_LIMITEXCEEDED",
	ResultGUIDError:            "GUID_ERROR",
	ResultRegistrationDisabled: "REGISTRATION_DISABLED",
	ResultAuthKeyError:         "AUTHKEY_ERROR",
	ResultUnauthorized:         "UNAUTHORIZED",
	ResultAuthorized:           "AUTHORIZED",
	ResultNotAllowed:           "NOT_ALLOWED",
	ResultChannelNotFound:      "CHANNEL_NOT_FOUND",
}

func (r ResultCode) Valid() bool {
	_, ok := resultCodeNames[r]
	return ok
}

func (r ResultCode) String() string {
	if name, ok := resultCodeNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// ChannelType describes the hardware behind a channel.
type ChannelType int32

const (
	ChannelTypeSensorNO            ChannelType = 1000
	ChannelTypeRelay               ChannelType = 2900
	ChannelTypeThermometer         ChannelType = 3034
	ChannelTypeHumiditySensor      ChannelType = 3036
	ChannelTypeHumidityAndTemp     ChannelType = 3038
	ChannelTypeDimmer              ChannelType = 4000
	ChannelTypeRGBLedController    ChannelType = 4010
	ChannelTypeDimmerAndRGBLed     ChannelType = 4020
	ChannelTypeGeneralPurposeMeter ChannelType = 540
)

func (t ChannelType) Valid() bool {
	switch t {
	case ChannelTypeSensorNO, ChannelTypeRelay, ChannelTypeThermometer,
		ChannelTypeHumiditySensor, ChannelTypeHumidityAndTemp,
		ChannelTypeDimmer, ChannelTypeRGBLedController,
		ChannelTypeDimmerAndRGBLed, ChannelTypeGeneralPurposeMeter:
		return true
	}
	return false
}

// ChannelFunc describes what a channel does.
type ChannelFunc int32

const (
	ChannelFuncNone                ChannelFunc = 0
	ChannelFuncThermometer         ChannelFunc = 40
	ChannelFuncHumidity            ChannelFunc = 42
	ChannelFuncHumidityAndTemp     ChannelFunc = 45
	ChannelFuncPowerSwitch         ChannelFunc = 130
	ChannelFuncLightSwitch         ChannelFunc = 140
	ChannelFuncDimmer              ChannelFunc = 180
	ChannelFuncGeneralPurposeMeter ChannelFunc = 520
)

func (f ChannelFunc) Valid() bool {
	switch f {
	case ChannelFuncNone, ChannelFuncThermometer, ChannelFuncHumidity,
		ChannelFuncHumidityAndTemp, ChannelFuncPowerSwitch,
		ChannelFuncLightSwitch, ChannelFuncDimmer,
		ChannelFuncGeneralPurposeMeter:
		return true
	}
	return false
}

// ChannelFlag is a bitset of channel capabilities.
type ChannelFlag uint64

const (
	ChannelFlagZWaveBridge          ChannelFlag = 0x0004
	ChannelFlagRSAutoCalibration    ChannelFlag = 0x0080
	ChannelFlagRGBWCommandsSupport  ChannelFlag = 0x0100
	ChannelFlagChannelState         ChannelFlag = 0x00010000
	ChannelFlagRuntimeChannelConfig ChannelFlag = 0x04000000
)

// DeviceFlag is a bitset of device capabilities.
type DeviceFlag int32

const (
	DeviceFlagCalcfgEnterCfgMode DeviceFlag = 0x0010
	DeviceFlagSleepModeEnabled   DeviceFlag = 0x0020
)

// ActionCap is a bitset of action trigger capabilities.
type ActionCap uint32

const (
	ActionCapTurnOn   ActionCap = 0x0001
	ActionCapTurnOff  ActionCap = 0x0002
	ActionCapToggleX1 ActionCap = 0x0004
	ActionCapToggleX2 ActionCap = 0x0008
	ActionCapToggleX3 ActionCap = 0x0010
)

// ActionType identifies an executable action.
type ActionType int32

const (
	ActionOpen              ActionType = 10
	ActionClose             ActionType = 20
	ActionShut              ActionType = 30
	ActionReveal            ActionType = 40
	ActionTurnOn            ActionType = 60
	ActionTurnOff           ActionType = 70
	ActionSetRGBWParameters ActionType = 80
	ActionOpenClose         ActionType = 90
	ActionStop              ActionType = 100
	ActionToggle            ActionType = 110
	ActionUpOrStop          ActionType = 140
	ActionDownOrStop        ActionType = 150
	ActionStepByStep        ActionType = 160
	ActionInterrupt         ActionType = 1000
	ActionExecute           ActionType = 3000
	ActionRead              ActionType = 4000
)

var actionTypeNames = map[ActionType]string{
	ActionOpen:              "OPEN",
	ActionClose:             "CLOSE",
	ActionShut:              "SHUT",
	ActionReveal:            "REVEAL",
	ActionTurnOn:            "TURN_ON",
	ActionTurnOff:           "TURN_OFF",
	ActionSetRGBWParameters: "SET_RGBW_PARAMETERS",
	ActionOpenClose:         "OPEN_CLOSE",
	ActionStop:              "STOP",
	ActionToggle:            "TOGGLE",
	ActionUpOrStop:          "UP_OR_STOP",
	ActionDownOrStop:        "DOWN_OR_STOP",
	ActionStepByStep:        "STEP_BY_STEP",
	ActionInterrupt:         "INTERRUPT",
	ActionExecute:           "EXECUTE",
	ActionRead:              "READ",
}

func (a ActionType) Valid() bool {
	_, ok := actionTypeNames[a]
	return ok
}

func (a ActionType) String() string {
	if name, ok := actionTypeNames[a]; ok {
		return name
	}
	return "UNKNOWN"
}

// ActionSubjectType identifies what an action is aimed at.
type ActionSubjectType uint8

const (
	SubjectChannel      ActionSubjectType = 1
	SubjectChannelGroup ActionSubjectType = 2
	SubjectScene        ActionSubjectType = 3
	SubjectSchedule     ActionSubjectType = 4
)

func (s ActionSubjectType) Valid() bool {
	return s >= SubjectChannel && s <= SubjectSchedule
}

func (s ActionSubjectType) String() string {
	switch s {
	case SubjectChannel:
		return "CHANNEL"
	case SubjectChannelGroup:
		return "CHANNEL_GROUP"
	case SubjectScene:
		return "SCENE"
	case SubjectSchedule:
		return "SCHEDULE"
	default:
		return "UNKNOWN"
	}
}

// Target identifies what a new-value request is aimed at.
type Target uint8

const (
	TargetChannel  Target = 0
	TargetGroup    Target = 1
	TargetIODevice Target = 2
)

func (t Target) Valid() bool {
	return t <= TargetIODevice
}

// ChannelStateField is a bitset marking which state fields are populated.
type ChannelStateField uint32

const (
	StateFieldIPv4                  ChannelStateField = 0x0001
	StateFieldMAC                   ChannelStateField = 0x0002
	StateFieldBatteryLevel          ChannelStateField = 0x0004
	StateFieldBatteryPowered        ChannelStateField = 0x0008
	StateFieldWiFiRSSI              ChannelStateField = 0x0010
	StateFieldWiFiSignalStrength    ChannelStateField = 0x0020
	StateFieldBridgeNodeOnline      ChannelStateField = 0x0040
	StateFieldBridgeNodeSignal      ChannelStateField = 0x0080
	StateFieldUptime                ChannelStateField = 0x0100
	StateFieldConnectionUptime      ChannelStateField = 0x0200
	StateFieldBatteryHealth         ChannelStateField = 0x0400
	StateFieldLastConnResetCause    ChannelStateField = 0x0800
	StateFieldLightSourceLifespan   ChannelStateField = 0x1000
	StateFieldLightSourceOperating  ChannelStateField = 0x2000
)

// ConfigType selects which channel configuration is requested.
type ConfigType uint8

const (
	ConfigTypeDefault        ConfigType = 0
	ConfigTypeWeeklySchedule ConfigType = 2
)

func (t ConfigType) Valid() bool {
	return t == ConfigTypeDefault || t == ConfigTypeWeeklySchedule
}

// ConfigResult is the outcome of a channel config exchange.
type ConfigResult uint8

const (
	ConfigResultFalse          ConfigResult = 0
	ConfigResultTrue           ConfigResult = 1
	ConfigResultDataError      ConfigResult = 2
	ConfigResultTypeNotSupport ConfigResult = 3
	ConfigResultFuncNotSupport ConfigResult = 4
)

func (r ConfigResult) Valid() bool {
	return r <= ConfigResultFuncNotSupport
}

// OAuthResultCode is the outcome of an OAuth token request.
type OAuthResultCode uint8

const (
	OAuthResultError       OAuthResultCode = 0
	OAuthResultSuccess     OAuthResultCode = 1
	OAuthResultUnavailable OAuthResultCode = 2
)

func (r OAuthResultCode) Valid() bool {
	return r <= OAuthResultUnavailable
}

// Platform identifies a push notification platform.
type Platform int32

const (
	PlatformUnknown Platform = 0
	PlatformAndroid Platform = 1
	PlatformIOS     Platform = 2
)

func (p Platform) Valid() bool {
	return p >= PlatformUnknown && p <= PlatformIOS
}

// GPMChartType selects the chart rendering for a general purpose
// measurement channel.
type GPMChartType uint8

const (
	GPMChartLinear GPMChartType = 0
	GPMChartBar    GPMChartType = 1
	GPMChartCandle GPMChartType = 2
)

func (t GPMChartType) Valid() bool {
	return t <= GPMChartCandle
}
