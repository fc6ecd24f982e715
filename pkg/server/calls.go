package server

import (
	"context"
	"fmt"

	"github.com/supla-lite/suplad/pkg/encoding"
	"github.com/supla-lite/suplad/pkg/proto"
)

// callHandlerFunc processes one decoded call. Returning an error is
// terminal for the connection; request-level failures reply with a
// negative result and return nil.
type callHandlerFunc func(ctx context.Context, c *Conn, data []byte) error

// callTable is the immutable call id → handler map built at startup.
type callTable struct {
	handlers map[proto.Call]callHandlerFunc
}

func (t *callTable) lookup(call proto.Call) (callHandlerFunc, bool) {
	h, ok := t.handlers[call]
	return h, ok
}

type callTableBuilder struct {
	handlers map[proto.Call]callHandlerFunc
}

func newCallTableBuilder() *callTableBuilder {
	return &callTableBuilder{handlers: make(map[proto.Call]callHandlerFunc)}
}

func (b *callTableBuilder) handle(call proto.Call, fn callHandlerFunc) *callTableBuilder {
	b.handlers[call] = fn
	return b
}

func (b *callTableBuilder) build() *callTable {
	handlers := make(map[proto.Call]callHandlerFunc, len(b.handlers))
	for call, fn := range b.handlers {
		handlers[call] = fn
	}
	return &callTable{handlers: handlers}
}

// decode reads one record of type T from a call payload. Trailing bytes
// are tolerated; peers may append padding the record does not declare.
func decode[T any](data []byte) (*T, error) {
	v := new(T)
	if _, err := encoding.UnmarshalFrom(data, v); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	return v, nil
}

func (s *Server) buildCallTable() *callTable {
	return newCallTableBuilder().
		// device or client housekeeping
		handle(proto.DCS_PING_SERVER, s.handlePing).
		handle(proto.DCS_GET_REGISTRATION_ENABLED, s.handleGetRegistrationEnabled).
		handle(proto.DCS_SET_ACTIVITY_TIMEOUT, s.handleSetActivityTimeout).
		// device calls
		handle(proto.DS_REGISTER_DEVICE_E, s.handleRegisterDevice).
		handle(proto.DS_DEVICE_CHANNEL_VALUE_CHANGED, s.handleDeviceChannelValueChanged).
		handle(proto.DS_DEVICE_CHANNEL_VALUE_CHANGED_C, s.handleDeviceChannelValueChangedC).
		handle(proto.DS_CHANNEL_SET_VALUE_RESULT, s.handleChannelSetValueResult).
		handle(proto.DSC_CHANNEL_STATE_RESULT, s.handleChannelStateResult).
		handle(proto.DS_DEVICE_CALCFG_RESULT, s.handleDeviceCalCfgResult).
		// client calls
		handle(proto.CS_REGISTER_CLIENT_D, s.handleRegisterClient).
		handle(proto.CS_GET_NEXT, s.handleGetNext).
		handle(proto.CS_EXECUTE_ACTION, s.handleExecuteAction).
		handle(proto.CS_SET_VALUE, s.handleSetValue).
		handle(proto.CS_GET_CHANNEL_CONFIG, s.handleGetChannelConfig).
		handle(proto.CSD_GET_CHANNEL_STATE, s.handleGetChannelState).
		handle(proto.CS_SUPERUSER_AUTHORIZATION_REQUEST, s.handleSuperuserAuthorization).
		handle(proto.CS_OAUTH_TOKEN_REQUEST, s.handleOAuthTokenRequest).
		handle(proto.CS_DEVICE_CALCFG_REQUEST_B, s.handleDeviceCalCfgRequest).
		handle(proto.CS_REGISTER_PN_CLIENT_TOKEN, s.handleRegisterPnClientToken).
		build()
}
