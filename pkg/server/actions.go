package server

import (
	"log/slog"

	"github.com/supla-lite/suplad/internal/logger"
	"github.com/supla-lite/suplad/pkg/encoding"
	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server/events"
	"github.com/supla-lite/suplad/pkg/server/state"
)

// executeAction runs a client action request. Failures leave world
// state untouched and report FALSE to the caller.
func (s *Server) executeAction(c *Conn, clientID int32, req *proto.TCS_Action) bool {
	switch req.SubjectType {
	case proto.SubjectChannel:
		return s.executeChannelAction(c, clientID, req.SubjectID, req.ActionID, req.Param)
	case proto.SubjectScene:
		if req.ActionID != proto.ActionExecute {
			c.log.Warn("unsupported scene action",
				slog.String("action", req.ActionID.String()))
			return false
		}
		return s.executeScene(c, clientID, req.SubjectID)
	default:
		c.log.Warn("unsupported action subject",
			slog.String("subject", req.SubjectType.String()))
		return false
	}
}

func (s *Server) executeChannelAction(c *Conn, clientID, channelID int32, action proto.ActionType, param []byte) bool {
	channel, ok := s.state.Channel(channelID)
	if !ok {
		c.log.Warn("action for unknown channel", logger.Channel(channelID))
		return false
	}
	value, ok := channelActionValue(channel, action, param)
	if !ok {
		c.log.Warn("unsupported channel action",
			logger.Channel(channelID),
			slog.String("action", action.String()))
		return false
	}
	return s.forwardSetValue(c, clientID, channel, value)
}

// executeScene resolves and validates every step before emitting any of
// them, so a bad step cannot apply a partial scene.
func (s *Server) executeScene(c *Conn, clientID, sceneID int32) bool {
	scene, ok := s.state.Scene(sceneID)
	if !ok {
		c.log.Warn("unknown scene", logger.Scene(sceneID))
		return false
	}

	type resolvedStep struct {
		channel state.Channel
		value   []byte
	}
	steps := make([]resolvedStep, 0, len(scene.Steps))
	for _, step := range scene.Steps {
		channel, ok := s.state.ChannelByName(step.ChannelName)
		if !ok {
			c.log.Warn("scene step names unknown channel",
				logger.Scene(sceneID),
				slog.String("channel", step.ChannelName))
			return false
		}
		value, ok := channelActionValue(channel, step.Action, step.Param)
		if !ok {
			c.log.Warn("scene step action unsupported",
				logger.Scene(sceneID),
				slog.String("channel", step.ChannelName),
				slog.String("action", step.Action.String()))
			return false
		}
		if _, online := s.state.DeviceQueue(channel.DeviceID); !online {
			c.log.Warn("scene step targets offline device",
				logger.Scene(sceneID),
				logger.Device(channel.DeviceID))
			return false
		}
		steps = append(steps, resolvedStep{channel: channel, value: value})
	}

	for _, step := range steps {
		if !s.forwardSetValue(c, clientID, step.channel, step.value) {
			return false
		}
	}
	return true
}

// forwardSetValue applies the value to channel state immediately, then
// asks the owning device to take it. Subsequent actions on the same
// channel read the new state without waiting for the device ack.
func (s *Server) forwardSetValue(c *Conn, clientID int32, channel state.Channel, value []byte) bool {
	deviceQueue, ok := s.state.DeviceQueue(channel.DeviceID)
	if !ok {
		c.log.Warn("device offline for set value", logger.Device(channel.DeviceID))
		return false
	}
	if err := s.state.SetChannelValue(channel.ID, value); err != nil {
		c.log.Warn("set value for unknown channel", logger.Channel(channel.ID))
		return false
	}
	deviceQueue.Push(events.ChannelSetValue, channel.ID, value, clientID)
	return true
}

// channelActionValue computes the 8-byte value a channel should take
// after an action, based on its type and current state.
func channelActionValue(channel state.Channel, action proto.ActionType, param []byte) ([]byte, bool) {
	switch channel.Type {
	case proto.ChannelTypeRelay:
		switch action {
		case proto.ActionTurnOn:
			return proto.RelayValue(true), true
		case proto.ActionTurnOff:
			return proto.RelayValue(false), true
		case proto.ActionToggle:
			return proto.RelayValue(!proto.RelayValueOn(channel.Value)), true
		}

	case proto.ChannelTypeDimmer:
		switch action {
		case proto.ActionTurnOff:
			return proto.DimmerValue(0), true
		case proto.ActionTurnOn:
			if b := proto.DimmerBrightness(channel.LastValue); b > 0 {
				return proto.DimmerValue(b), true
			}
			return proto.DimmerValue(100), true
		}

	case proto.ChannelTypeRGBLedController, proto.ChannelTypeDimmerAndRGBLed:
		if action == proto.ActionSetRGBWParameters {
			return rgbwActionValue(channel, param)
		}
	}
	return nil, false
}

// rgbwActionValue applies SET_RGBW_PARAMETERS. A negative brightness
// in the parameters means "leave unchanged".
func rgbwActionValue(channel state.Channel, param []byte) ([]byte, bool) {
	var params proto.TAction_RGBW_Parameters
	if _, err := encoding.UnmarshalFrom(param, &params); err != nil {
		return nil, false
	}

	value := proto.EmptyChannelValue()
	copy(value, channel.Value)

	if params.Brightness >= 0 {
		value[0] = uint8(params.Brightness)
	}
	if params.ColorBrightness >= 0 {
		value[1] = uint8(params.ColorBrightness)
	}
	value[2] = uint8(params.Color)         // blue
	value[3] = uint8(params.Color >> 8)    // green
	value[4] = uint8(params.Color >> 16)   // red
	if params.OnOff && params.ColorBrightness < 0 && value[1] == 0 {
		value[1] = 100
	}
	return value, true
}
