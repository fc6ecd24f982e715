package proto

import "github.com/supla-lite/suplad/pkg/encoding"

// Channel values travel as opaque 8-byte blocks. The records below give
// them structure for the channel kinds the server understands.

type TRelayChannel_Value struct {
	On       bool   `supla:"uint8"`
	Flags    uint16 `supla:"uint16"`
	Reserved []byte `supla:"bytes,size=5"`
}

type TDimmerChannel_Value struct {
	Brightness uint8  `supla:"uint8"`
	Reserved   []byte `supla:"bytes,size=7"`
}

// TAction_RGBW_Parameters is the param block of a SET_RGBW_PARAMETERS
// action. ColorBrightness and Brightness use -1 for "leave unchanged".
type TAction_RGBW_Parameters struct {
	Brightness      int8   `supla:"int8"`
	ColorBrightness int8   `supla:"int8"`
	Color           uint32 `supla:"uint32"`
	ColorRandom     bool   `supla:"uint8"`
	OnOff           bool   `supla:"uint8"`
}

// EmptyChannelValue returns an all-zero 8-byte channel value.
func EmptyChannelValue() []byte {
	return make([]byte, ChannelValueSize)
}

// RelayValue encodes a relay on/off state as an 8-byte channel value.
func RelayValue(on bool) []byte {
	v, _ := encoding.Marshal(TRelayChannel_Value{On: on, Reserved: make([]byte, 5)})
	return v
}

// RelayValueOn reports whether an 8-byte relay value is "on".
func RelayValueOn(value []byte) bool {
	return len(value) > 0 && value[0] != 0
}

// DimmerValue encodes a brightness as an 8-byte channel value.
func DimmerValue(brightness uint8) []byte {
	v, _ := encoding.Marshal(TDimmerChannel_Value{Brightness: brightness, Reserved: make([]byte, 7)})
	return v
}

// DimmerBrightness extracts the brightness from an 8-byte dimmer value.
func DimmerBrightness(value []byte) uint8 {
	if len(value) == 0 {
		return 0
	}
	return value[0]
}
