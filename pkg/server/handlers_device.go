package server

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/supla-lite/suplad/internal/logger"
	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server/events"
)

// handleRegisterDevice validates a device registration against the
// configured world. Any mismatch gets a FALSE result and the connection
// is closed; the configured channel layout is the contract.
func (s *Server) handleRegisterDevice(ctx context.Context, c *Conn, data []byte) error {
	req, err := decode[proto.TDS_RegisterDevice_E](data)
	if err != nil {
		return err
	}

	reject := func(reason string) error {
		c.log.Warn("device registration rejected",
			logger.GUID(req.GUID),
			slog.String("reason", reason))
		s.metrics.RecordRegistration("device", "rejected")
		if err := c.send(proto.SD_REGISTER_DEVICE_RESULT, proto.TSD_RegisterDeviceResult{
			ResultCode:      proto.ResultFalse,
			ActivityTimeout: proto.ActivityTimeoutDefault,
			Version:         proto.Version,
			VersionMin:      proto.VersionMin,
		}); err != nil {
			return err
		}
		return errRegistrationFailed
	}

	if !c.unregistered() {
		return reject("connection already registered")
	}

	device, ok := s.state.DeviceByGUID(req.GUID)
	if !ok {
		return reject("unknown guid")
	}
	if req.ManufacturerID != device.ManufacturerID || req.ProductID != device.ProductID {
		return reject("manufacturer or product mismatch")
	}
	if len(req.Channels) != len(device.ChannelIDs) {
		return reject("channel count mismatch")
	}
	for i, rc := range req.Channels {
		configured, _ := s.state.Channel(device.ChannelIDs[i])
		if rc.Number != uint8(i) {
			return reject("channel number out of order")
		}
		if rc.Type != configured.Type {
			return reject("channel type mismatch")
		}
		if rc.DefaultFunc != configured.Func {
			return reject("channel function mismatch")
		}
		if rc.Flags != proto.ChannelFlag(uint32(configured.Flags)) {
			return reject("channel flags mismatch")
		}
	}

	if !s.state.DeviceConnected(device.ID, c.getPeerVersion(), c.queue) {
		c.log.Warn("duplicate device session", logger.Device(device.ID))
		s.metrics.RecordRegistration("device", "duplicate")
		if err := c.send(proto.SD_REGISTER_DEVICE_RESULT, proto.TSD_RegisterDeviceResult{
			ResultCode:      proto.ResultFalse,
			ActivityTimeout: proto.ActivityTimeoutDefault,
			Version:         proto.Version,
			VersionMin:      proto.VersionMin,
		}); err != nil {
			return err
		}
		return errDuplicateSession
	}

	c.setRegistered(peerDevice, device.ID, "device["+device.Name+"]")
	s.metrics.RecordRegistration("device", "accepted")
	c.log.Info("device registered",
		logger.Device(device.ID),
		slog.Int("channels", len(req.Channels)))

	if err := c.send(proto.SD_REGISTER_DEVICE_RESULT, proto.TSD_RegisterDeviceResult{
		ResultCode:      proto.ResultTrue,
		ActivityTimeout: uint8(c.getActivityTimeout() / time.Second),
		Version:         proto.Version,
		VersionMin:      proto.VersionMin,
	}); err != nil {
		return err
	}

	queue := s.state.ServerQueue()
	for i, rc := range req.Channels {
		queue.Push(events.ChannelRegisterValue, device.ChannelIDs[i], bytes.Clone(rc.Value))
	}
	queue.Push(events.DeviceConnected, device.ID)
	return nil
}

// handleDeviceChannelValueChanged publishes a value update reported by
// the device.
func (s *Server) handleDeviceChannelValueChanged(ctx context.Context, c *Conn, data []byte) error {
	req, err := decode[proto.TDS_DeviceChannelValue](data)
	if err != nil {
		return err
	}
	return s.publishDeviceValue(c, req.ChannelNumber, req.Value)
}

func (s *Server) handleDeviceChannelValueChangedC(ctx context.Context, c *Conn, data []byte) error {
	req, err := decode[proto.TDS_DeviceChannelValue_C](data)
	if err != nil {
		return err
	}
	if req.Offline {
		c.log.Debug("channel reported offline",
			slog.Int("channel_number", int(req.ChannelNumber)))
	}
	return s.publishDeviceValue(c, req.ChannelNumber, req.Value)
}

func (s *Server) publishDeviceValue(c *Conn, channelNumber uint8, value []byte) error {
	deviceID, err := c.registeredDevice()
	if err != nil {
		return err
	}
	channelID, ok := s.channelIDForNumber(deviceID, channelNumber)
	if !ok {
		c.log.Warn("value for unknown channel number",
			slog.Int("channel_number", int(channelNumber)))
		return nil
	}
	s.state.ServerQueue().Push(events.ChannelValueChanged, channelID, bytes.Clone(value))
	return nil
}

// handleChannelSetValueResult fans the current channel value out to
// clients once the device acknowledges a set request. The ack does not
// carry the value and its success flag does not gate the fan-out;
// state already holds what the channel was asked to take.
func (s *Server) handleChannelSetValueResult(ctx context.Context, c *Conn, data []byte) error {
	req, err := decode[proto.TDS_ChannelNewValueResult](data)
	if err != nil {
		return err
	}
	deviceID, err := c.registeredDevice()
	if err != nil {
		return err
	}

	if !req.Success {
		c.log.Warn("device rejected set value",
			slog.Int("channel_number", int(req.ChannelNumber)),
			logger.Client(req.SenderID))
	}

	channelID, ok := s.channelIDForNumber(deviceID, req.ChannelNumber)
	if !ok {
		c.log.Warn("set-value result for unknown channel number",
			slog.Int("channel_number", int(req.ChannelNumber)))
		return nil
	}
	channel, ok := s.state.Channel(channelID)
	if !ok {
		return nil
	}
	s.state.ServerQueue().Push(events.ChannelValueChanged, channelID, bytes.Clone(channel.Value))
	return nil
}

// handleChannelStateResult routes a device state report back to the
// client named by receiver_id, re-framed with the global channel id.
func (s *Server) handleChannelStateResult(ctx context.Context, c *Conn, data []byte) error {
	req, err := decode[proto.TDS_ChannelState](data)
	if err != nil {
		return err
	}
	deviceID, err := c.registeredDevice()
	if err != nil {
		return err
	}

	clientQueue, ok := s.state.ClientQueue(req.ReceiverID)
	if !ok {
		c.log.Warn("state result for unknown receiver", logger.Client(req.ReceiverID))
		return nil
	}
	if req.ChannelNumber < 0 || req.ChannelNumber > 255 {
		c.log.Warn("state result with invalid channel number")
		return nil
	}
	channelID, ok := s.channelIDForNumber(deviceID, uint8(req.ChannelNumber))
	if !ok {
		c.log.Warn("state result for unknown channel number",
			slog.Int("channel_number", int(req.ChannelNumber)))
		return nil
	}

	clientQueue.Push(events.ChannelStateResult, reframeChannelState(req, channelID))
	return nil
}

// handleDeviceCalCfgResult routes a calcfg result to the requesting
// client.
func (s *Server) handleDeviceCalCfgResult(ctx context.Context, c *Conn, data []byte) error {
	req, err := decode[proto.TDS_DeviceCalCfgResult](data)
	if err != nil {
		return err
	}
	deviceID, err := c.registeredDevice()
	if err != nil {
		return err
	}

	clientQueue, ok := s.state.ClientQueue(req.ReceiverID)
	if !ok {
		c.log.Warn("calcfg result for unknown receiver", logger.Client(req.ReceiverID))
		return nil
	}
	if req.ChannelNumber < 0 || req.ChannelNumber > 255 {
		c.log.Warn("calcfg result with invalid channel number")
		return nil
	}
	channelID, ok := s.channelIDForNumber(deviceID, uint8(req.ChannelNumber))
	if !ok {
		c.log.Warn("calcfg result for unknown channel number",
			slog.Int("channel_number", int(req.ChannelNumber)))
		return nil
	}

	clientQueue.Push(events.DeviceConfigResult, &proto.TSC_DeviceCalCfgResult{
		ChannelID: channelID,
		Command:   req.Command,
		Result:    req.Result,
		Data:      bytes.Clone(req.Data),
	})
	return nil
}

// channelIDForNumber maps a device-local channel number to the global
// channel id.
func (s *Server) channelIDForNumber(deviceID int32, number uint8) (int32, bool) {
	device, ok := s.state.Device(deviceID)
	if !ok || int(number) >= len(device.ChannelIDs) {
		return 0, false
	}
	return device.ChannelIDs[number], true
}

// reframeChannelState rewrites a device state report as the client
// record: identical layout with the channel number swapped for the id.
func reframeChannelState(in *proto.TDS_ChannelState, channelID int32) *proto.TSC_ChannelState {
	return &proto.TSC_ChannelState{
		ReceiverID:               in.ReceiverID,
		ChannelID:                channelID,
		Fields:                   in.Fields,
		DefaultIconField:         in.DefaultIconField,
		IPv4:                     in.IPv4,
		MAC:                      bytes.Clone(in.MAC),
		BatteryLevel:             in.BatteryLevel,
		BatteryPowered:           in.BatteryPowered,
		WiFiRSSI:                 in.WiFiRSSI,
		WiFiSignalStrength:       in.WiFiSignalStrength,
		BridgeNodeOnline:         in.BridgeNodeOnline,
		BridgeNodeSignalStrength: in.BridgeNodeSignalStrength,
		Uptime:                   in.Uptime,
		ConnectionUptime:         in.ConnectionUptime,
		BatteryHealth:            in.BatteryHealth,
		LastConnectionResetCause: in.LastConnectionResetCause,
		LightSourceLifespan:      in.LightSourceLifespan,
		LightSourceOperatingTime: in.LightSourceOperatingTime,
		EmptySpace:               bytes.Clone(in.EmptySpace),
	}
}
