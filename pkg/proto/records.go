package proto

import "time"

// DataPacket is the outer frame of every exchange: a tagged, versioned
// envelope around a single call payload.
type DataPacket struct {
	Tag          []byte `supla:"bytes,size=5"`
	Version      uint8  `supla:"uint8"`
	PacketNumber uint32 `supla:"uint32"`
	CallID       Call   `supla:"uint32"`
	Data         []byte `supla:"bytes,sizeof=uint32,max=10240"`
	EndTag       []byte `supla:"bytes,size=5"`
}

// NewDataPacket builds a frame with the start and end tags filled in.
func NewDataPacket(version uint8, packetNumber uint32, callID Call, data []byte) DataPacket {
	return DataPacket{
		Tag:          []byte(Tag),
		Version:      version,
		PacketNumber: packetNumber,
		CallID:       callID,
		Data:         data,
		EndTag:       []byte(Tag),
	}
}

// TimeVal is a unix timestamp split into seconds and microseconds.
type TimeVal struct {
	Sec  int64 `supla:"int64"`
	USec int64 `supla:"int64"`
}

// NowTimeVal captures the current time.
func NowTimeVal() TimeVal {
	now := time.Now()
	return TimeVal{Sec: now.Unix(), USec: int64(now.Nanosecond() / 1000)}
}

// Time converts the value back to a time.Time.
func (tv TimeVal) Time() time.Time {
	return time.Unix(tv.Sec, tv.USec*1000)
}

// ============================================================================
// Ping / housekeeping
// ============================================================================

type TDCS_PingServer struct {
	Now TimeVal `supla:"struct"`
}

type TSDC_PingServerResult struct {
	Now TimeVal `supla:"struct"`
}

type TSDC_RegistrationEnabled struct {
	ClientTimestamp   uint32 `supla:"uint32"`
	IODeviceTimestamp uint32 `supla:"uint32"`
}

type TDCS_SetActivityTimeout struct {
	ActivityTimeout uint8 `supla:"uint8"`
}

type TSDC_SetActivityTimeoutResult struct {
	ActivityTimeout uint8 `supla:"uint8"`
	Min             uint8 `supla:"uint8"`
	Max             uint8 `supla:"uint8"`
}

// ============================================================================
// Device registration
// ============================================================================

// TDS_DeviceChannel_C describes one channel in a device registration.
type TDS_DeviceChannel_C struct {
	Number            uint8       `supla:"uint8"`
	Type              ChannelType `supla:"int32"`
	ActionTriggerCaps ActionCap   `supla:"uint32"`
	DefaultFunc       ChannelFunc `supla:"int32"`
	Flags             ChannelFlag `supla:"uint32"`
	Value             []byte      `supla:"bytes,size=8"`
}

type TDS_RegisterDevice_E struct {
	Email          string                `supla:"string,size=256"`
	AuthKey        []byte                `supla:"bytes,size=16"`
	GUID           []byte                `supla:"bytes,size=16"`
	Name           string                `supla:"string,size=201"`
	SoftVer        string                `supla:"string,size=21"`
	ServerName     string                `supla:"string,size=65"`
	Flags          DeviceFlag            `supla:"int32"`
	ManufacturerID int16                 `supla:"int16"`
	ProductID      int16                 `supla:"int16"`
	Channels       []TDS_DeviceChannel_C `supla:"array,sizeof=uint8,max=128"`
}

type TSD_RegisterDeviceResult struct {
	ResultCode      ResultCode `supla:"int32"`
	ActivityTimeout uint8      `supla:"uint8"`
	Version         uint8      `supla:"uint8"`
	VersionMin      uint8      `supla:"uint8"`
}

// ============================================================================
// Client registration
// ============================================================================

type TCS_RegisterClient_D struct {
	Email      string `supla:"string,size=256"`
	Password   string `supla:"string,size=64"`
	GUID       []byte `supla:"bytes,size=16"`
	AuthKey    []byte `supla:"bytes,size=16"`
	Name       string `supla:"string,size=201"`
	SoftVer    string `supla:"string,size=21"`
	ServerName string `supla:"string,size=65"`
}

type TSC_RegisterClientResult_D struct {
	ResultCode          ResultCode `supla:"int32"`
	ClientID            int32      `supla:"int32"`
	LocationCount       int16      `supla:"int16"`
	ChannelCount        int16      `supla:"int16"`
	ChannelGroupCount   int16      `supla:"int16"`
	SceneCount          int16      `supla:"int16"`
	ActivityTimeout     uint8      `supla:"uint8"`
	Version             uint8      `supla:"uint8"`
	VersionMin          uint8      `supla:"uint8"`
	ServerUnixTimestamp uint64     `supla:"uint64"`
}

// ============================================================================
// Locations, channels, scenes (server to client packs)
// ============================================================================

type TSC_Location struct {
	EOL     bool   `supla:"uint8"`
	ID      int32  `supla:"int32"`
	Caption string `supla:"string,sizeof=int32,max=401"`
}

type TSC_LocationPack struct {
	TotalLeft int32          `supla:"int32"`
	Items     []TSC_Location `supla:"array,sizeof=int32,max=20,offset=-1"`
}

// ChannelValue_B carries the raw 8-byte value plus sensor sub-value.
type ChannelValue_B struct {
	Value        []byte `supla:"bytes,size=8"`
	SubValue     []byte `supla:"bytes,size=8"`
	SubValueType uint8  `supla:"uint8"`
}

type TSC_Channel_D struct {
	EOL             bool           `supla:"uint8"`
	ID              int32          `supla:"int32"`
	DeviceID        int32          `supla:"int32"`
	LocationID      int32          `supla:"int32"`
	Type            ChannelType    `supla:"int32"`
	Func            ChannelFunc    `supla:"int32"`
	AltIcon         int32          `supla:"int32"`
	UserIcon        int32          `supla:"int32"`
	ManufacturerID  int16          `supla:"int16"`
	ProductID       int16          `supla:"int16"`
	Flags           ChannelFlag    `supla:"uint32"`
	ProtocolVersion uint8          `supla:"uint8"`
	Online          bool           `supla:"uint8"`
	Value           ChannelValue_B `supla:"struct"`
	Caption         string         `supla:"string,sizeof=int32,max=401"`
}

type TSC_ChannelPack_D struct {
	TotalLeft int32           `supla:"int32"`
	Items     []TSC_Channel_D `supla:"array,sizeof=int32,max=20,offset=-1"`
}

type TSC_Channel_E struct {
	EOL                bool           `supla:"uint8"`
	ID                 int32          `supla:"int32"`
	DeviceID           int32          `supla:"int32"`
	LocationID         int32          `supla:"int32"`
	Type               ChannelType    `supla:"int32"`
	Func               ChannelFunc    `supla:"int32"`
	AltIcon            int32          `supla:"int32"`
	UserIcon           int32          `supla:"int32"`
	ManufacturerID     int16          `supla:"int16"`
	ProductID          int16          `supla:"int16"`
	Flags              ChannelFlag    `supla:"uint64"`
	DefaultConfigCRC32 uint32         `supla:"uint32"`
	ProtocolVersion    uint8          `supla:"uint8"`
	Online             bool           `supla:"uint8"`
	Value              ChannelValue_B `supla:"struct"`
	Caption            string         `supla:"string,sizeof=int32,max=401"`
}

type TSC_ChannelPack_E struct {
	TotalLeft int32           `supla:"int32"`
	Items     []TSC_Channel_E `supla:"array,sizeof=int32,max=20,offset=-1"`
}

type TSC_ChannelValue_B struct {
	EOL    bool           `supla:"uint8"`
	ID     int32          `supla:"int32"`
	Online bool           `supla:"uint8"`
	Value  ChannelValue_B `supla:"struct"`
}

type TSC_ChannelValuePack_B struct {
	TotalLeft int32                `supla:"int32"`
	Items     []TSC_ChannelValue_B `supla:"array,sizeof=int32,max=20,offset=-1"`
}

type TSC_Scene struct {
	EOL        bool   `supla:"uint8"`
	ID         int32  `supla:"int32"`
	LocationID int32  `supla:"int32"`
	AltIcon    int32  `supla:"int32"`
	UserIcon   int32  `supla:"int32"`
	Caption    string `supla:"string,sizeof=uint16,max=401"`
}

type TSC_ScenePack struct {
	TotalLeft int32       `supla:"int32"`
	Items     []TSC_Scene `supla:"array,sizeof=int32,max=20,offset=-1"`
}

// ============================================================================
// Channel values
// ============================================================================

type TDS_DeviceChannelValue struct {
	ChannelNumber uint8  `supla:"uint8"`
	Value         []byte `supla:"bytes,size=8"`
}

type TDS_DeviceChannelValue_C struct {
	ChannelNumber   uint8  `supla:"uint8"`
	Offline         bool   `supla:"uint8"`
	ValidityTimeSec uint32 `supla:"uint32"`
	Value           []byte `supla:"bytes,size=8"`
}

type TSD_ChannelNewValue struct {
	SenderID      int32  `supla:"int32"`
	ChannelNumber uint8  `supla:"uint8"`
	DurationMS    uint32 `supla:"uint32"`
	Value         []byte `supla:"bytes,size=8"`
}

type TDS_ChannelNewValueResult struct {
	ChannelNumber uint8 `supla:"uint8"`
	SenderID      int32 `supla:"int32"`
	Success       bool  `supla:"uint8"`
}

type TCS_NewValue struct {
	ValueID int32  `supla:"int32"`
	Target  Target `supla:"uint8"`
	Value   []byte `supla:"bytes,size=8"`
}

// ============================================================================
// Actions
// ============================================================================

type TCS_Action struct {
	ActionID    ActionType        `supla:"int32"`
	SubjectID   int32             `supla:"int32"`
	SubjectType ActionSubjectType `supla:"uint8"`
	Param       []byte            `supla:"bytes,sizeof=uint16,max=500"`
}

type TSC_ActionExecutionResult struct {
	ResultCode  ResultCode        `supla:"uint8"`
	ActionID    ActionType        `supla:"int32"`
	SubjectID   int32             `supla:"int32"`
	SubjectType ActionSubjectType `supla:"uint8"`
}

// ============================================================================
// Channel state
// ============================================================================

type TCS_ChannelStateRequest struct {
	SenderID  int32 `supla:"int32"`
	ChannelID int32 `supla:"int32"`
}

type TSD_ChannelStateRequest struct {
	SenderID      int32 `supla:"int32"`
	ChannelNumber uint8 `supla:"uint8"`
}

// TDS_ChannelState is what a device reports. TSC_ChannelState shares the
// exact layout with the channel number replaced by the channel id, so a
// state report can be re-framed for a client without re-encoding fields.
type TDS_ChannelState struct {
	ReceiverID               int32             `supla:"int32"`
	ChannelNumber            int32             `supla:"int32"`
	Fields                   ChannelStateField `supla:"uint32"`
	DefaultIconField         ChannelStateField `supla:"uint32"`
	IPv4                     uint32            `supla:"uint32"`
	MAC                      []byte            `supla:"bytes,size=6"`
	BatteryLevel             uint8             `supla:"uint8"`
	BatteryPowered           bool              `supla:"uint8"`
	WiFiRSSI                 int8              `supla:"int8"`
	WiFiSignalStrength       uint8             `supla:"uint8"`
	BridgeNodeOnline         bool              `supla:"uint8"`
	BridgeNodeSignalStrength uint8             `supla:"uint8"`
	Uptime                   uint32            `supla:"uint32"`
	ConnectionUptime         uint32            `supla:"uint32"`
	BatteryHealth            uint8             `supla:"uint8"`
	LastConnectionResetCause uint8             `supla:"uint8"`
	LightSourceLifespan      uint16            `supla:"uint16"`
	LightSourceOperatingTime int32             `supla:"int32"`
	EmptySpace               []byte            `supla:"bytes,size=2"`
}

type TSC_ChannelState struct {
	ReceiverID               int32             `supla:"int32"`
	ChannelID                int32             `supla:"int32"`
	Fields                   ChannelStateField `supla:"uint32"`
	DefaultIconField         ChannelStateField `supla:"uint32"`
	IPv4                     uint32            `supla:"uint32"`
	MAC                      []byte            `supla:"bytes,size=6"`
	BatteryLevel             uint8             `supla:"uint8"`
	BatteryPowered           bool              `supla:"uint8"`
	WiFiRSSI                 int8              `supla:"int8"`
	WiFiSignalStrength       uint8             `supla:"uint8"`
	BridgeNodeOnline         bool              `supla:"uint8"`
	BridgeNodeSignalStrength uint8             `supla:"uint8"`
	Uptime                   uint32            `supla:"uint32"`
	ConnectionUptime         uint32            `supla:"uint32"`
	BatteryHealth            uint8             `supla:"uint8"`
	LastConnectionResetCause uint8             `supla:"uint8"`
	LightSourceLifespan      uint16            `supla:"uint16"`
	LightSourceOperatingTime int32             `supla:"int32"`
	EmptySpace               []byte            `supla:"bytes,size=2"`
}

// ============================================================================
// Channel config
// ============================================================================

type TCS_GetChannelConfigRequest struct {
	ChannelID  int32      `supla:"int32"`
	ConfigType ConfigType `supla:"uint8"`
	Flags      uint32     `supla:"uint32"`
}

type TSCS_ChannelConfig struct {
	ChannelID  int32       `supla:"int32"`
	Func       ChannelFunc `supla:"int32"`
	ConfigType ConfigType  `supla:"uint8"`
	Config     []byte      `supla:"bytes,sizeof=uint16,max=512"`
}

type TSC_ChannelConfigUpdateOrResult struct {
	Result ConfigResult       `supla:"uint8"`
	Config TSCS_ChannelConfig `supla:"struct"`
}

// TChannelConfig_GeneralPurposeMeasurement is the payload of a channel
// config reply for general purpose measurement channels.
type TChannelConfig_GeneralPurposeMeasurement struct {
	ValueDivider           int32        `supla:"int32"`
	ValueMultiplier        int32        `supla:"int32"`
	ValueAdded             int64        `supla:"int64"`
	ValuePrecision         uint8        `supla:"uint8"`
	UnitBeforeValue        string       `supla:"string,size=15"`
	UnitAfterValue         string       `supla:"string,size=15"`
	NoSpaceBeforeValue     bool         `supla:"uint8"`
	NoSpaceAfterValue      bool         `supla:"uint8"`
	KeepHistory            bool         `supla:"uint8"`
	ChartType              GPMChartType `supla:"uint8"`
	RefreshIntervalMS      uint16       `supla:"uint16"`
	DefaultValueDivider    int32        `supla:"int32"`
	DefaultValueMultiplier int32        `supla:"int32"`
	DefaultValueAdded      int64        `supla:"int64"`
	DefaultValuePrecision  uint8        `supla:"uint8"`
	DefaultUnitBeforeValue string       `supla:"string,size=15"`
	DefaultUnitAfterValue  string       `supla:"string,size=15"`
}

// ============================================================================
// Device calibration / configuration (calcfg)
// ============================================================================

type TCS_DeviceCalCfgRequest_B struct {
	ChannelID int32  `supla:"int32"`
	Target    Target `supla:"uint8"`
	Command   int32  `supla:"int32"`
	DataType  int32  `supla:"int32"`
	Data      []byte `supla:"bytes,sizeof=uint32,max=128"`
}

type TSD_DeviceCalCfgRequest struct {
	SenderID            int32  `supla:"int32"`
	ChannelNumber       int32  `supla:"int32"`
	Command             int32  `supla:"int32"`
	SuperUserAuthorized bool   `supla:"uint8"`
	DataType            int32  `supla:"int32"`
	Data                []byte `supla:"bytes,sizeof=uint32,max=128"`
}

type TDS_DeviceCalCfgResult struct {
	ReceiverID    int32  `supla:"int32"`
	ChannelNumber int32  `supla:"int32"`
	Command       int32  `supla:"int32"`
	Result        int32  `supla:"int32"`
	Data          []byte `supla:"bytes,sizeof=uint32,max=128"`
}

type TSC_DeviceCalCfgResult struct {
	ChannelID int32  `supla:"int32"`
	Command   int32  `supla:"int32"`
	Result    int32  `supla:"int32"`
	Data      []byte `supla:"bytes,sizeof=uint32,max=128"`
}

// ============================================================================
// Authorization and tokens
// ============================================================================

type TCS_SuperUserAuthorizationRequest struct {
	Email    string `supla:"string,size=256"`
	Password string `supla:"string,size=64"`
}

type TSC_SuperUserAuthorizationResult struct {
	Result ResultCode `supla:"int32"`
}

type TSC_OAuthToken struct {
	ExpiresIn int32  `supla:"int32"`
	Token     []byte `supla:"bytes,sizeof=uint16,max=256"`
}

type TSC_OAuthTokenRequestResult struct {
	ResultCode OAuthResultCode `supla:"uint8"`
	Token      TSC_OAuthToken  `supla:"struct"`
}

type TCS_ClientAuthorizationDetails struct {
	AccessID    int32  `supla:"int32"`
	AccessIDPwd string `supla:"string,size=33"`
	Email       string `supla:"string,size=256"`
	AuthKey     []byte `supla:"bytes,size=16"`
	GUID        []byte `supla:"bytes,size=16"`
	ServerName  string `supla:"string,size=65"`
}

type TCS_PnClientToken struct {
	DevelopmentEnv uint8    `supla:"uint8"`
	Platform       Platform `supla:"int32"`
	AppID          int32    `supla:"int32"`
	ProfileName    string   `supla:"string,size=51"`
	RealTokenSize  int16    `supla:"int16"`
	Token          string   `supla:"string,sizeof=uint16,max=256"`
}

type TCS_RegisterPnClientToken struct {
	Auth  TCS_ClientAuthorizationDetails `supla:"struct"`
	Token TCS_PnClientToken              `supla:"struct"`
}

type TSC_RegisterPnClientTokenResult struct {
	ResultCode ResultCode `supla:"int32"`
}
