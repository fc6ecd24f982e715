// Package proto defines the SUPLA protocol vocabulary: the call registry,
// enumerations and wire records exchanged between devices, clients and the
// server.
//
// Record layouts are declared with `supla` struct tags and encoded by
// pkg/encoding. All sizes and orderings follow the published protocol;
// integers are little-endian.
package proto

// Tag delimits every data packet on the wire.
const Tag = "SUPLA"

// Protocol version handling. Version is what the server speaks;
// VersionMin is the lowest peer version accepted by default.
const (
	Version    = 23
	VersionMin = 10
)

// Activity timeout bounds in seconds. Peers may request a different
// timeout which is clamped to this range.
const (
	ActivityTimeoutMin     = 30
	ActivityTimeoutMax     = 240
	ActivityTimeoutDefault = 30
)

// Pack limits: at most this many items per update packet.
const (
	ChannelPackMaxCount      = 20
	ChannelValuePackMaxCount = 20
	LocationPackMaxCount     = 20
	ScenePackMaxCount        = 20
)

// Field size limits.
const (
	GUIDSize            = 16
	AuthKeySize         = 16
	ChannelValueSize    = 8
	EmailMaxSize        = 256
	PasswordMaxSize     = 64
	AccessIDPwdMaxSize  = 33
	CaptionMaxSize      = 401
	DeviceNameMaxSize   = 201
	ClientNameMaxSize   = 201
	SoftVerMaxSize      = 21
	ServerNameMaxSize   = 65
	ChannelMaxCount     = 128
	ActionParamMaxSize  = 500
	ChannelConfigMax    = 512
	CalCfgDataMaxSize   = 128
	OAuthTokenMaxSize   = 256
	PnProfileNameSize   = 51
	PnClientTokenMax    = 256
	GPMUnitSize         = 15
	MaxDataSize         = 10240
)

// Call identifies a protocol operation. The numbering follows the upstream
// SUPLA protocol where the direction prefix encodes who talks to whom:
// D=device, C=client, S=server (DCS = device or client to server, and so
// on).
type Call uint32

const (
	DCS_PING_SERVER                     Call = 40
	SDC_PING_SERVER_RESULT              Call = 50
	DS_REGISTER_DEVICE_E                Call = 69
	SD_REGISTER_DEVICE_RESULT           Call = 70
	CS_REGISTER_CLIENT_D                Call = 87
	SC_REGISTER_CLIENT_RESULT_D         Call = 94
	DS_DEVICE_CHANNEL_VALUE_CHANGED     Call = 100
	DS_DEVICE_CHANNEL_VALUE_CHANGED_C   Call = 103
	SD_CHANNEL_SET_VALUE                Call = 110
	DS_CHANNEL_SET_VALUE_RESULT         Call = 120
	SC_LOCATIONPACK_UPDATE              Call = 140
	CS_GET_NEXT                         Call = 180
	CS_SET_VALUE                        Call = 205
	DCS_SET_ACTIVITY_TIMEOUT            Call = 210
	SDC_SET_ACTIVITY_TIMEOUT_RESULT     Call = 220
	DCS_GET_REGISTRATION_ENABLED        Call = 230
	SDC_GET_REGISTRATION_ENABLED_RESULT Call = 240
	SC_CHANNELVALUE_PACK_UPDATE_B       Call = 380
	CSD_GET_CHANNEL_STATE               Call = 500
	DSC_CHANNEL_STATE_RESULT            Call = 510
	CS_OAUTH_TOKEN_REQUEST              Call = 520
	SC_OAUTH_TOKEN_REQUEST_RESULT       Call = 530
	CS_SUPERUSER_AUTHORIZATION_REQUEST  Call = 540
	SC_SUPERUSER_AUTHORIZATION_RESULT   Call = 550
	CS_DEVICE_CALCFG_REQUEST_B          Call = 561
	SD_DEVICE_CALCFG_REQUEST            Call = 570
	DS_DEVICE_CALCFG_RESULT             Call = 580
	SC_DEVICE_CALCFG_RESULT             Call = 590
	CS_EXECUTE_ACTION                   Call = 610
	SC_ACTION_EXECUTION_RESULT          Call = 620
	CS_GET_CHANNEL_CONFIG               Call = 680
	SC_CHANNEL_CONFIG_UPDATE_OR_RESULT  Call = 690
	CS_REGISTER_PN_CLIENT_TOKEN         Call = 700
	SC_REGISTER_PN_CLIENT_TOKEN_RESULT  Call = 710
	SC_CHANNELPACK_UPDATE_D             Call = 800
	SC_CHANNELPACK_UPDATE_E             Call = 806
	SC_SCENE_PACK_UPDATE                Call = 900
)

var callNames = map[Call]string{
	DCS_PING_SERVER:                     "DCS_PING_SERVER",
	SDC_PING_SERVER_RESULT:              "SDC_PING_SERVER_RESULT",
	DS_REGISTER_DEVICE_E:                "DS_REGISTER_DEVICE_E",
	SD_REGISTER_DEVICE_RESULT:           "SD_REGISTER_DEVICE_RESULT",
	CS_REGISTER_CLIENT_D:                "CS_REGISTER_CLIENT_D",
	SC_REGISTER_CLIENT_RESULT_D:         "SC_REGISTER_CLIENT_RESULT_D",
	DS_DEVICE_CHANNEL_VALUE_CHANGED:     "DS_DEVICE_CHANNEL_VALUE_CHANGED",
	DS_DEVICE_CHANNEL_VALUE_CHANGED_C:   "DS_DEVICE_CHANNEL_VALUE_CHANGED_C",
	SD_CHANNEL_SET_VALUE:                "SD_CHANNEL_SET_VALUE",
	DS_CHANNEL_SET_VALUE_RESULT:         "DS_CHANNEL_SET_VALUE_RESULT",
	SC_LOCATIONPACK_UPDATE:              "SC_LOCATIONPACK_UPDATE",
	CS_GET_NEXT:                         "CS_GET_NEXT",
	CS_SET_VALUE:                        "CS_SET_VALUE",
	DCS_SET_ACTIVITY_TIMEOUT:            "DCS_SET_ACTIVITY_TIMEOUT",
	SDC_SET_ACTIVITY_TIMEOUT_RESULT:     "SDC_SET_ACTIVITY_TIMEOUT_RESULT",
	DCS_GET_REGISTRATION_ENABLED:        "DCS_GET_REGISTRATION_ENABLED",
	SDC_GET_REGISTRATION_ENABLED_RESULT: "SDC_GET_REGISTRATION_ENABLED_RESULT",
	SC_CHANNELVALUE_PACK_UPDATE_B:       "SC_CHANNELVALUE_PACK_UPDATE_B",
	CSD_GET_CHANNEL_STATE:               "CSD_GET_CHANNEL_STATE",
	DSC_CHANNEL_STATE_RESULT:            "DSC_CHANNEL_STATE_RESULT",
	CS_OAUTH_TOKEN_REQUEST:              "CS_OAUTH_TOKEN_REQUEST",
	SC_OAUTH_TOKEN_REQUEST_RESULT:       "SC_OAUTH_TOKEN_REQUEST_RESULT",
	CS_SUPERUSER_AUTHORIZATION_REQUEST:  "CS_SUPERUSER_AUTHORIZATION_REQUEST",
	SC_SUPERUSER_AUTHORIZATION_RESULT:   "SC_SUPERUSER_AUTHORIZATION_RESULT",
	CS_DEVICE_CALCFG_REQUEST_B:          "CS_DEVICE_CALCFG_REQUEST_B",
	SD_DEVICE_CALCFG_REQUEST:            "SD_DEVICE_CALCFG_REQUEST",
	DS_DEVICE_CALCFG_RESULT:             "DS_DEVICE_CALCFG_RESULT",
	SC_DEVICE_CALCFG_RESULT:             "SC_DEVICE_CALCFG_RESULT",
	CS_EXECUTE_ACTION:                   "CS_EXECUTE_ACTION",
	SC_ACTION_EXECUTION_RESULT:          "SC_ACTION_EXECUTION_RESULT",
	CS_GET_CHANNEL_CONFIG:               "CS_GET_CHANNEL_CONFIG",
	SC_CHANNEL_CONFIG_UPDATE_OR_RESULT:  "SC_CHANNEL_CONFIG_UPDATE_OR_RESULT",
	CS_REGISTER_PN_CLIENT_TOKEN:         "CS_REGISTER_PN_CLIENT_TOKEN",
	SC_REGISTER_PN_CLIENT_TOKEN_RESULT:  "SC_REGISTER_PN_CLIENT_TOKEN_RESULT",
	SC_CHANNELPACK_UPDATE_D:             "SC_CHANNELPACK_UPDATE_D",
	SC_CHANNELPACK_UPDATE_E:             "SC_CHANNELPACK_UPDATE_E",
	SC_SCENE_PACK_UPDATE:                "SC_SCENE_PACK_UPDATE",
}

// Valid reports whether c is a known call id.
func (c Call) Valid() bool {
	_, ok := callNames[c]
	return ok
}

func (c Call) String() string {
	if name, ok := callNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}
