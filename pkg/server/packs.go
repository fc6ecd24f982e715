package server

import (
	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server/state"
)

// The world is flat: every channel and scene lives in one location.
const locationID = 1

// channelPackEVersion is the first protocol version that understands
// the extended channel record.
const channelPackEVersion = 23

func (s *Server) locationPack() proto.TSC_LocationPack {
	return proto.TSC_LocationPack{
		Items: []proto.TSC_Location{{
			EOL:     true,
			ID:      locationID,
			Caption: s.opts.LocationCaption,
		}},
	}
}

// deviceFor caches device snapshots while building a pack.
func (s *Server) deviceFor(cache map[int32]state.Device, deviceID int32) state.Device {
	if device, ok := cache[deviceID]; ok {
		return device
	}
	device, _ := s.state.Device(deviceID)
	cache[deviceID] = device
	return device
}

func channelValueB(value []byte) proto.ChannelValue_B {
	normalized := proto.EmptyChannelValue()
	copy(normalized, value)
	return proto.ChannelValue_B{
		Value:    normalized,
		SubValue: make([]byte, proto.ChannelValueSize),
	}
}

// packFlags advertises channel-state support on every channel so
// clients enable the state popup.
func packFlags(flags proto.ChannelFlag) proto.ChannelFlag {
	return flags | proto.ChannelFlagChannelState
}

func (s *Server) channelPacksE() []proto.TSC_ChannelPack_E {
	channels := s.state.Channels()
	devices := make(map[int32]state.Device)

	var packs []proto.TSC_ChannelPack_E
	for start := 0; start < len(channels); start += proto.ChannelPackMaxCount {
		end := min(start+proto.ChannelPackMaxCount, len(channels))

		items := make([]proto.TSC_Channel_E, 0, end-start)
		for i, channel := range channels[start:end] {
			device := s.deviceFor(devices, channel.DeviceID)
			items = append(items, proto.TSC_Channel_E{
				EOL:             start+i == len(channels)-1,
				ID:              channel.ID,
				DeviceID:        channel.DeviceID,
				LocationID:      locationID,
				Type:            channel.Type,
				Func:            channel.Func,
				AltIcon:         channel.AltIcon,
				UserIcon:        int32(channel.UserIcon),
				ManufacturerID:  device.ManufacturerID,
				ProductID:       device.ProductID,
				Flags:           packFlags(channel.Flags),
				ProtocolVersion: device.ProtoVersion,
				Online:          device.Online,
				Value:           channelValueB(channel.Value),
				Caption:         channel.Caption,
			})
		}
		packs = append(packs, proto.TSC_ChannelPack_E{
			TotalLeft: int32(len(channels) - end),
			Items:     items,
		})
	}
	if len(packs) == 0 {
		packs = append(packs, proto.TSC_ChannelPack_E{})
	}
	return packs
}

func (s *Server) channelPacksD() []proto.TSC_ChannelPack_D {
	channels := s.state.Channels()
	devices := make(map[int32]state.Device)

	var packs []proto.TSC_ChannelPack_D
	for start := 0; start < len(channels); start += proto.ChannelPackMaxCount {
		end := min(start+proto.ChannelPackMaxCount, len(channels))

		items := make([]proto.TSC_Channel_D, 0, end-start)
		for i, channel := range channels[start:end] {
			device := s.deviceFor(devices, channel.DeviceID)
			items = append(items, proto.TSC_Channel_D{
				EOL:             start+i == len(channels)-1,
				ID:              channel.ID,
				DeviceID:        channel.DeviceID,
				LocationID:      locationID,
				Type:            channel.Type,
				Func:            channel.Func,
				AltIcon:         channel.AltIcon,
				UserIcon:        int32(channel.UserIcon),
				ManufacturerID:  device.ManufacturerID,
				ProductID:       device.ProductID,
				Flags:           packFlags(channel.Flags),
				ProtocolVersion: device.ProtoVersion,
				Online:          device.Online,
				Value:           channelValueB(channel.Value),
				Caption:         channel.Caption,
			})
		}
		packs = append(packs, proto.TSC_ChannelPack_D{
			TotalLeft: int32(len(channels) - end),
			Items:     items,
		})
	}
	if len(packs) == 0 {
		packs = append(packs, proto.TSC_ChannelPack_D{})
	}
	return packs
}

func (s *Server) scenePacks() []proto.TSC_ScenePack {
	scenes := s.state.Scenes()

	var packs []proto.TSC_ScenePack
	for start := 0; start < len(scenes); start += proto.ScenePackMaxCount {
		end := min(start+proto.ScenePackMaxCount, len(scenes))

		items := make([]proto.TSC_Scene, 0, end-start)
		for i, scene := range scenes[start:end] {
			items = append(items, proto.TSC_Scene{
				EOL:        start+i == len(scenes)-1,
				ID:         scene.ID,
				LocationID: locationID,
				AltIcon:    scene.AltIcon,
				UserIcon:   int32(scene.UserIcon),
				Caption:    scene.Caption,
			})
		}
		packs = append(packs, proto.TSC_ScenePack{
			TotalLeft: int32(len(scenes) - end),
			Items:     items,
		})
	}
	if len(packs) == 0 {
		packs = append(packs, proto.TSC_ScenePack{})
	}
	return packs
}

// deviceValuePack builds a value pack covering every channel of one
// device.
func (s *Server) deviceValuePack(deviceID int32) (proto.TSC_ChannelValuePack_B, bool) {
	device, ok := s.state.Device(deviceID)
	if !ok || len(device.ChannelIDs) == 0 {
		return proto.TSC_ChannelValuePack_B{}, false
	}

	items := make([]proto.TSC_ChannelValue_B, 0, len(device.ChannelIDs))
	for i, channelID := range device.ChannelIDs {
		channel, ok := s.state.Channel(channelID)
		if !ok {
			continue
		}
		items = append(items, proto.TSC_ChannelValue_B{
			EOL:    i == len(device.ChannelIDs)-1,
			ID:     channel.ID,
			Online: device.Online,
			Value:  channelValueB(channel.Value),
		})
	}
	return proto.TSC_ChannelValuePack_B{Items: items}, true
}

// channelValuePack builds a single-channel value pack.
func (s *Server) channelValuePack(channelID int32) (proto.TSC_ChannelValuePack_B, bool) {
	channel, ok := s.state.Channel(channelID)
	if !ok {
		return proto.TSC_ChannelValuePack_B{}, false
	}
	device, _ := s.state.Device(channel.DeviceID)

	return proto.TSC_ChannelValuePack_B{
		Items: []proto.TSC_ChannelValue_B{{
			EOL:    true,
			ID:     channel.ID,
			Online: device.Online,
			Value:  channelValueB(channel.Value),
		}},
	}, true
}
