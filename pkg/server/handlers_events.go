package server

import (
	"context"
	"fmt"

	"github.com/supla-lite/suplad/internal/logger"
	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server/events"
)

// arg extracts one positional payload value from an event.
func arg[T any](event events.Event, index int) (T, error) {
	var zero T
	if index >= len(event.Args) {
		return zero, fmt.Errorf("event %s: missing argument %d", event.ID, index)
	}
	value, ok := event.Args[index].(T)
	if !ok {
		return zero, fmt.Errorf("event %s: argument %d has type %T", event.ID, index, event.Args[index])
	}
	return value, nil
}

func (s *Server) buildEventRegistry() *events.Registry[*Conn] {
	return events.NewBuilder[*Conn]().
		// server scope: mutate state, fan out to peers
		On(events.ScopeServer, events.ChannelRegisterValue, s.onChannelRegisterValue).
		On(events.ScopeServer, events.ChannelValueChanged, s.onChannelValueChanged).
		On(events.ScopeServer, events.ChannelSetValue, s.onChannelSetValue).
		On(events.ScopeServer, events.DeviceConnected, s.onDeviceOnlineChanged).
		On(events.ScopeServer, events.DeviceDisconnected, s.onDeviceOnlineChanged).
		On(events.ScopeServer, events.ClientConnected, s.onClientPresence).
		On(events.ScopeServer, events.ClientDisconnected, s.onClientPresence).
		// device scope: push requests to the physical device
		On(events.ScopeDevice, events.ChannelSetValue, s.onDeviceChannelSetValue).
		On(events.ScopeDevice, events.GetChannelState, s.onDeviceGetChannelState).
		On(events.ScopeDevice, events.DeviceConfig, s.onDeviceConfigRequest).
		// client scope: push updates to the user application
		On(events.ScopeClient, events.SendLocations, s.onSendLocations).
		On(events.ScopeClient, events.SendChannels, s.onSendChannels).
		On(events.ScopeClient, events.SendScenes, s.onSendScenes).
		On(events.ScopeClient, events.DeviceConnected, s.onClientDeviceOnline).
		On(events.ScopeClient, events.DeviceDisconnected, s.onClientDeviceOnline).
		On(events.ScopeClient, events.ChannelValueChanged, s.onClientChannelValueChanged).
		On(events.ScopeClient, events.ChannelStateResult, s.onClientChannelStateResult).
		On(events.ScopeClient, events.DeviceConfigResult, s.onClientDeviceConfigResult).
		Build()
}

// ============================================================================
// Server scope
// ============================================================================

// onChannelRegisterValue stores the initial value a device reported at
// registration. Clients learn about it through the following
// DEVICE_CONNECTED fan-out.
func (s *Server) onChannelRegisterValue(ctx context.Context, _ *Conn, event events.Event) error {
	channelID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	value, err := arg[[]byte](event, 1)
	if err != nil {
		return err
	}
	return s.state.SetChannelValue(channelID, value)
}

func (s *Server) onChannelValueChanged(ctx context.Context, _ *Conn, event events.Event) error {
	channelID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	value, err := arg[[]byte](event, 1)
	if err != nil {
		return err
	}
	if err := s.state.SetChannelValue(channelID, value); err != nil {
		return err
	}
	for _, queue := range s.state.ClientQueues() {
		queue.Push(events.ChannelValueChanged, channelID)
	}
	return nil
}

// onChannelSetValue routes a requested value to the owning device's
// queue.
func (s *Server) onChannelSetValue(ctx context.Context, _ *Conn, event events.Event) error {
	channelID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	value, err := arg[[]byte](event, 1)
	if err != nil {
		return err
	}
	senderID, err := arg[int32](event, 2)
	if err != nil {
		return err
	}

	channel, ok := s.state.Channel(channelID)
	if !ok {
		logger.Warn("set value for unknown channel", logger.Channel(channelID))
		return nil
	}
	deviceQueue, ok := s.state.DeviceQueue(channel.DeviceID)
	if !ok {
		logger.Warn("set value for offline device", logger.Device(channel.DeviceID))
		return nil
	}
	deviceQueue.Push(events.ChannelSetValue, channelID, value, senderID)
	return nil
}

func (s *Server) onDeviceOnlineChanged(ctx context.Context, _ *Conn, event events.Event) error {
	deviceID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	logger.Info("device presence changed",
		logger.Device(deviceID),
		logger.Event(event.ID.String()))
	for _, queue := range s.state.ClientQueues() {
		queue.Push(event.ID, deviceID)
	}
	return nil
}

func (s *Server) onClientPresence(ctx context.Context, _ *Conn, event events.Event) error {
	clientID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	logger.Info("client presence changed",
		logger.Client(clientID),
		logger.Event(event.ID.String()))
	return nil
}

// ============================================================================
// Device scope
// ============================================================================

func (s *Server) onDeviceChannelSetValue(ctx context.Context, c *Conn, event events.Event) error {
	channelID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	value, err := arg[[]byte](event, 1)
	if err != nil {
		return err
	}
	senderID, err := arg[int32](event, 2)
	if err != nil {
		return err
	}

	channel, ok := s.state.Channel(channelID)
	if !ok {
		return fmt.Errorf("unknown channel %d", channelID)
	}

	return c.send(proto.SD_CHANNEL_SET_VALUE, proto.TSD_ChannelNewValue{
		SenderID:      senderID,
		ChannelNumber: channel.Number,
		Value:         value,
	})
}

func (s *Server) onDeviceGetChannelState(ctx context.Context, c *Conn, event events.Event) error {
	clientID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	channelNumber, err := arg[uint8](event, 1)
	if err != nil {
		return err
	}
	return c.send(proto.CSD_GET_CHANNEL_STATE, proto.TSD_ChannelStateRequest{
		SenderID:      clientID,
		ChannelNumber: channelNumber,
	})
}

func (s *Server) onDeviceConfigRequest(ctx context.Context, c *Conn, event events.Event) error {
	req, err := arg[*proto.TSD_DeviceCalCfgRequest](event, 0)
	if err != nil {
		return err
	}
	return c.send(proto.SD_DEVICE_CALCFG_REQUEST, *req)
}

// ============================================================================
// Client scope
// ============================================================================

func (s *Server) onSendLocations(ctx context.Context, c *Conn, event events.Event) error {
	return c.send(proto.SC_LOCATIONPACK_UPDATE, s.locationPack())
}

// onSendChannels picks the pack shape by the client's protocol version;
// older clients do not understand the extended channel record.
func (s *Server) onSendChannels(ctx context.Context, c *Conn, event events.Event) error {
	if c.getPeerVersion() >= channelPackEVersion {
		for _, pack := range s.channelPacksE() {
			if err := c.send(proto.SC_CHANNELPACK_UPDATE_E, pack); err != nil {
				return err
			}
		}
		return nil
	}
	for _, pack := range s.channelPacksD() {
		if err := c.send(proto.SC_CHANNELPACK_UPDATE_D, pack); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) onSendScenes(ctx context.Context, c *Conn, event events.Event) error {
	for _, pack := range s.scenePacks() {
		if err := c.send(proto.SC_SCENE_PACK_UPDATE, pack); err != nil {
			return err
		}
	}
	return nil
}

// onClientDeviceOnline reports an online flip by resending the value
// pack for the device's channels.
func (s *Server) onClientDeviceOnline(ctx context.Context, c *Conn, event events.Event) error {
	deviceID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	pack, ok := s.deviceValuePack(deviceID)
	if !ok {
		return nil
	}
	return c.send(proto.SC_CHANNELVALUE_PACK_UPDATE_B, pack)
}

func (s *Server) onClientChannelValueChanged(ctx context.Context, c *Conn, event events.Event) error {
	channelID, err := arg[int32](event, 0)
	if err != nil {
		return err
	}
	pack, ok := s.channelValuePack(channelID)
	if !ok {
		return nil
	}
	return c.send(proto.SC_CHANNELVALUE_PACK_UPDATE_B, pack)
}

func (s *Server) onClientChannelStateResult(ctx context.Context, c *Conn, event events.Event) error {
	result, err := arg[*proto.TSC_ChannelState](event, 0)
	if err != nil {
		return err
	}
	return c.send(proto.DSC_CHANNEL_STATE_RESULT, *result)
}

func (s *Server) onClientDeviceConfigResult(ctx context.Context, c *Conn, event events.Event) error {
	result, err := arg[*proto.TSC_DeviceCalCfgResult](event, 0)
	if err != nil {
		return err
	}
	return c.send(proto.SC_DEVICE_CALCFG_RESULT, *result)
}
