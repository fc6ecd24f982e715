package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supla-lite/suplad/pkg/encoding"
)

func TestTimeValEncoding(t *testing.T) {
	data, err := encoding.Marshal(TimeVal{Sec: 1, USec: 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, data)

	var tv TimeVal
	require.NoError(t, encoding.Unmarshal(data, &tv))
	assert.Equal(t, TimeVal{Sec: 1, USec: 2}, tv)
}

func TestRegisterDeviceResultEncoding(t *testing.T) {
	data, err := encoding.Marshal(TSD_RegisterDeviceResult{
		ResultCode:      ResultTrue,
		ActivityTimeout: 2,
		Version:         3,
		VersionMin:      4,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x03, 0x00, 0x00, 0x00, 0x02, 0x03, 0x04}, data)
}

func TestRegisterDeviceEncoding(t *testing.T) {
	msg := TDS_RegisterDevice_E{
		Email:          "email@example.com",
		AuthKey:        make([]byte, 16),
		GUID:           make([]byte, 16),
		Name:           "Test Device",
		SoftVer:        "1.0",
		ServerName:     "localhost",
		ManufacturerID: 42,
		ProductID:      7,
		Channels: []TDS_DeviceChannel_C{
			{
				Number:      1,
				Type:        ChannelTypeDimmer,
				DefaultFunc: ChannelFuncDimmer,
				Flags:       ChannelFlagRGBWCommandsSupport,
				Value:       []byte{6, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}
	data, err := encoding.Marshal(msg)
	require.NoError(t, err)
	require.Len(t, data, 609)

	// header fields sit at fixed offsets
	assert.Equal(t, byte('e'), data[0])
	assert.Equal(t, byte('T'), data[288]) // name after email+authkey+guid
	// manufacturer and product ids after the string block
	assert.Equal(t, []byte{0x2A, 0x00, 0x07, 0x00}, data[579:583])
	assert.Equal(t, byte(1), data[583]) // channel count
	// the single channel record
	assert.Equal(t, []byte{
		0x01,
		0xA0, 0x0F, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00,
		0xB4, 0x00, 0x00, 0x00,
		0x00, 0x01, 0x00, 0x00,
		0x06, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}, data[584:])

	var decoded TDS_RegisterDevice_E
	require.NoError(t, encoding.Unmarshal(data, &decoded))
	assert.Equal(t, "email@example.com", decoded.Email)
	assert.Equal(t, "Test Device", decoded.Name)
	require.Len(t, decoded.Channels, 1)
	assert.Equal(t, ChannelTypeDimmer, decoded.Channels[0].Type)
}

func TestLocationEncoding(t *testing.T) {
	data, err := encoding.Marshal(TSC_Location{ID: 1, Caption: "Location"})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00,
		0x01, 0x00, 0x00, 0x00,
		0x09, 0x00, 0x00, 0x00,
		'L', 'o', 'c', 'a', 't', 'i', 'o', 'n', 0x00,
	}, data)
}

func TestLocationPackEncoding(t *testing.T) {
	// the item count precedes the total-left field
	data, err := encoding.Marshal(TSC_LocationPack{TotalLeft: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x00, 0x00,
	}, data)

	pack := TSC_LocationPack{
		TotalLeft: 0,
		Items: []TSC_Location{
			{ID: 1, Caption: "a"},
			{EOL: true, ID: 2, Caption: "b"},
		},
	}
	data, err = encoding.Marshal(pack)
	require.NoError(t, err)
	assert.Equal(t, byte(2), data[0])

	var decoded TSC_LocationPack
	require.NoError(t, encoding.Unmarshal(data, &decoded))
	require.Len(t, decoded.Items, 2)
	assert.True(t, decoded.Items[1].EOL)
	assert.Equal(t, "b", decoded.Items[1].Caption)
}

func TestDataPacketFraming(t *testing.T) {
	payload, err := encoding.Marshal(TDCS_PingServer{Now: TimeVal{Sec: 5, USec: 6}})
	require.NoError(t, err)
	require.Len(t, payload, 16)

	packet := NewDataPacket(19, 1, DCS_PING_SERVER, payload)
	data, err := encoding.Marshal(packet)
	require.NoError(t, err)

	expected := append([]byte("SUPLA"), 0x13)
	expected = append(expected, 0x01, 0x00, 0x00, 0x00) // packet number
	expected = append(expected, 0x28, 0x00, 0x00, 0x00) // call id 40
	expected = append(expected, 0x10, 0x00, 0x00, 0x00) // payload size
	expected = append(expected, payload...)
	expected = append(expected, []byte("SUPLA")...)
	assert.Equal(t, expected, data)
}

func TestDataPacketPartialDecode(t *testing.T) {
	payload, err := encoding.Marshal(TDCS_PingServer{Now: TimeVal{Sec: 5, USec: 6}})
	require.NoError(t, err)
	data, err := encoding.Marshal(NewDataPacket(19, 1, DCS_PING_SERVER, payload))
	require.NoError(t, err)

	// tag, version, packet number, call id, payload size
	values, off, err := encoding.UnmarshalPartial(data, &DataPacket{}, 5)
	require.NoError(t, err)
	require.Len(t, values, 5)
	assert.Equal(t, []byte("SUPLA"), values[0])
	assert.Equal(t, uint8(19), values[1])
	assert.Equal(t, uint32(1), values[2])
	assert.Equal(t, DCS_PING_SERVER, values[3])
	assert.Equal(t, 16, values[4])
	assert.Equal(t, 18, off)
}

func TestDataPacketRejectsUnknownCall(t *testing.T) {
	data, err := encoding.Marshal(NewDataPacket(19, 1, DCS_PING_SERVER, nil))
	require.NoError(t, err)
	// zero the call id
	copy(data[10:14], []byte{0, 0, 0, 0})

	_, _, err = encoding.UnmarshalPartial(data, &DataPacket{}, 5)
	assert.ErrorIs(t, err, encoding.ErrInvalidValue)
}

func TestChannelStateEncoding(t *testing.T) {
	state := TDS_ChannelState{
		ReceiverID:               3,
		ChannelNumber:            1,
		Fields:                   StateFieldMAC,
		MAC:                      []byte{1, 2, 3, 4, 5, 6},
		WiFiRSSI:                 7,
		WiFiSignalStrength:       8,
		BridgeNodeSignalStrength: 9,
		Uptime:                   10,
		ConnectionUptime:         11,
		LightSourceOperatingTime: 15,
	}
	data, err := encoding.Marshal(state)
	require.NoError(t, err)
	require.Len(t, data, 50)

	// the client-facing record shares the layout; only the second field
	// changes meaning from channel number to channel id
	var sc TSC_ChannelState
	require.NoError(t, encoding.Unmarshal(data, &sc))
	assert.Equal(t, int32(3), sc.ReceiverID)
	assert.Equal(t, int32(1), sc.ChannelID)
	assert.Equal(t, StateFieldMAC, sc.Fields)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, sc.MAC)
	assert.Equal(t, int8(7), sc.WiFiRSSI)
	assert.Equal(t, int32(15), sc.LightSourceOperatingTime)
}

func TestRecordSizes(t *testing.T) {
	cases := []struct {
		name string
		msg  any
		size int
	}{
		{"TDCS_PingServer", TDCS_PingServer{}, 16},
		{"TSDC_RegistrationEnabled", TSDC_RegistrationEnabled{}, 8},
		{"TDCS_SetActivityTimeout", TDCS_SetActivityTimeout{}, 1},
		{"TSDC_SetActivityTimeoutResult", TSDC_SetActivityTimeoutResult{}, 3},
		{"TSD_RegisterDeviceResult", TSD_RegisterDeviceResult{}, 7},
		{"TCS_RegisterClient_D", TCS_RegisterClient_D{}, 639},
		{"TSC_RegisterClientResult_D", TSC_RegisterClientResult_D{}, 27},
		{"TCS_ClientAuthorizationDetails", TCS_ClientAuthorizationDetails{}, 390},
		{"TCS_SuperUserAuthorizationRequest", TCS_SuperUserAuthorizationRequest{}, 320},
		{"TSC_SuperUserAuthorizationResult", TSC_SuperUserAuthorizationResult{}, 4},
		{"TSC_RegisterPnClientTokenResult", TSC_RegisterPnClientTokenResult{}, 4},
		{"TDS_DeviceChannelValue", TDS_DeviceChannelValue{}, 9},
		{"TDS_DeviceChannelValue_C", TDS_DeviceChannelValue_C{}, 14},
		{"TSD_ChannelNewValue", TSD_ChannelNewValue{}, 17},
		{"TDS_ChannelNewValueResult", TDS_ChannelNewValueResult{}, 6},
		{"TCS_NewValue", TCS_NewValue{}, 13},
		{"TSC_ActionExecutionResult", TSC_ActionExecutionResult{}, 10},
		{"TCS_ChannelStateRequest", TCS_ChannelStateRequest{}, 8},
		{"TSD_ChannelStateRequest", TSD_ChannelStateRequest{}, 5},
		{"TDS_ChannelState", TDS_ChannelState{}, 50},
		{"TSC_ChannelState", TSC_ChannelState{}, 50},
		{"TCS_GetChannelConfigRequest", TCS_GetChannelConfigRequest{}, 9},
		{"TChannelConfig_GPM", TChannelConfig_GeneralPurposeMeasurement{}, 100},
		{"TAction_RGBW_Parameters", TAction_RGBW_Parameters{}, 8},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := encoding.Marshal(tc.msg)
			require.NoError(t, err)
			assert.Len(t, data, tc.size)
		})
	}
}

func TestChannelPackEncoding(t *testing.T) {
	value := ChannelValue_B{
		Value:    []byte{1, 0, 0, 0, 0, 0, 0, 0},
		SubValue: make([]byte, 8),
	}
	pack := TSC_ChannelPack_E{
		Items: []TSC_Channel_E{
			{
				ID: 1, DeviceID: 1, LocationID: 1,
				Type: ChannelTypeDimmer, Func: ChannelFuncDimmer,
				ProtocolVersion: 19, Online: true,
				Value: value, Caption: "Channel 1",
			},
			{
				EOL: true, ID: 2, DeviceID: 1, LocationID: 1,
				Type: ChannelTypeRelay, Func: ChannelFuncLightSwitch,
				ProtocolVersion: 19, Online: true,
				Value: value, Caption: "Channel 2",
			},
		},
	}
	data, err := encoding.Marshal(pack)
	require.NoError(t, err)
	assert.Len(t, data, 164)

	var decoded TSC_ChannelPack_E
	require.NoError(t, encoding.Unmarshal(data, &decoded))
	require.Len(t, decoded.Items, 2)
	assert.Equal(t, "Channel 2", decoded.Items[1].Caption)
	assert.True(t, decoded.Items[1].EOL)
}

func TestRGBWParametersEncoding(t *testing.T) {
	data, err := encoding.Marshal(TAction_RGBW_Parameters{
		Brightness:      10,
		ColorBrightness: -1,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0A, 0xFF, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, data)
}

func TestChannelValueHelpers(t *testing.T) {
	on := RelayValue(true)
	require.Len(t, on, 8)
	assert.Equal(t, byte(1), on[0])
	assert.True(t, RelayValueOn(on))
	assert.False(t, RelayValueOn(RelayValue(false)))

	dim := DimmerValue(100)
	require.Len(t, dim, 8)
	assert.Equal(t, uint8(100), DimmerBrightness(dim))
	assert.Equal(t, uint8(0), DimmerBrightness(EmptyChannelValue()))
}

func TestCallNames(t *testing.T) {
	assert.Equal(t, "DCS_PING_SERVER", DCS_PING_SERVER.String())
	assert.True(t, DCS_PING_SERVER.Valid())
	assert.False(t, Call(0).Valid())
	assert.Equal(t, "UNKNOWN", Call(12345).String())
}
