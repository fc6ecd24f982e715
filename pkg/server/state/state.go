// Package state holds the in-memory world: devices, channels, scenes,
// icons and clients. Everything is built from configuration at startup;
// only online flags, channel values and client authorization mutate at
// runtime. A single mutex guards the whole registry.
package state

import (
	"bytes"
	"errors"
	"fmt"
	"sync"

	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server/events"
)

var (
	ErrUnknownDevice  = errors.New("unknown device")
	ErrUnknownChannel = errors.New("unknown channel")
	ErrUnknownScene   = errors.New("unknown scene")
	ErrUnknownClient  = errors.New("unknown client")
	ErrDuplicateName  = errors.New("duplicate name")
	ErrDuplicateGUID  = errors.New("duplicate guid")
)

// Device is a configured hardware peer. ChannelIDs are ordered by the
// device-local channel number.
type Device struct {
	ID             int32
	Name           string
	GUID           []byte
	ManufacturerID int16
	ProductID      int16
	ChannelIDs     []int32
	ProtoVersion   uint8
	Online         bool
}

// Channel is one functional endpoint on a device. Number is the
// device-local index, ID is globally unique.
type Channel struct {
	ID        int32
	DeviceID  int32
	Number    uint8
	Name      string
	Caption   string
	Type      proto.ChannelType
	Func      proto.ChannelFunc
	Flags     proto.ChannelFlag
	AltIcon   int32
	UserIcon  uint32
	Value     []byte
	LastValue []byte
	Config    *proto.TChannelConfig_GeneralPurposeMeasurement
}

// SceneStep references a channel by name so scenes can be configured
// before channel ids are assigned.
type SceneStep struct {
	ChannelName string
	Action      proto.ActionType
	Param       []byte
}

type Scene struct {
	ID       int32
	Name     string
	Caption  string
	AltIcon  int32
	UserIcon uint32
	Steps    []SceneStep
}

// Icon is a content-addressed image set shared by channels and scenes
// that configure identical bytes.
type Icon struct {
	ID         uint32
	Images     [][]byte
	ImagesDark [][]byte
}

// IconSet carries configured icon bytes into the registry.
type IconSet struct {
	Images     [][]byte
	ImagesDark [][]byte
}

func (s IconSet) empty() bool {
	return len(s.Images) == 0 && len(s.ImagesDark) == 0
}

// Client is a user-facing application peer, created on first successful
// registration and reused by GUID on reconnect.
type Client struct {
	ID         int32
	Name       string
	GUID       []byte
	Authorized bool
	Connected  bool
}

// ChannelParams configures one channel at init time.
type ChannelParams struct {
	Name    string
	Caption string
	Type    proto.ChannelType
	Func    proto.ChannelFunc
	Flags   proto.ChannelFlag
	AltIcon int32
	Icons   IconSet
	Config  *proto.TChannelConfig_GeneralPurposeMeasurement
}

// SceneParams configures one scene at init time.
type SceneParams struct {
	Name    string
	Caption string
	AltIcon int32
	Icons   IconSet
	Steps   []SceneStep
}

// State is the world registry. All methods are safe for concurrent use.
type State struct {
	mu sync.Mutex

	devices        map[int32]*Device
	devicesByGUID  map[string]int32
	channels       map[int32]*Channel
	channelsByName map[string]int32
	scenes         map[int32]*Scene
	clients        map[int32]*Client
	clientsByGUID  map[string]int32
	icons          map[uint32]*Icon

	deviceQueues map[int32]*events.Queue
	clientQueues map[int32]*events.Queue
	serverQueue  *events.Queue

	nextDeviceID  int32
	nextChannelID int32
	nextSceneID   int32
	nextClientID  int32
}

func New() *State {
	return &State{
		devices:        make(map[int32]*Device),
		devicesByGUID:  make(map[string]int32),
		channels:       make(map[int32]*Channel),
		channelsByName: make(map[string]int32),
		scenes:         make(map[int32]*Scene),
		clients:        make(map[int32]*Client),
		clientsByGUID:  make(map[string]int32),
		icons:          make(map[uint32]*Icon),
		deviceQueues:   make(map[int32]*events.Queue),
		clientQueues:   make(map[int32]*events.Queue),
		serverQueue:    events.NewQueue(),
	}
}

// AddDevice registers a configured device and returns its dense id.
func (s *State) AddDevice(name string, guid []byte, manufacturerID, productID int16) (int32, error) {
	if len(guid) != proto.GUIDSize {
		return 0, fmt.Errorf("device %q: guid must be %d bytes", name, proto.GUIDSize)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(guid)
	if _, ok := s.devicesByGUID[key]; ok {
		return 0, fmt.Errorf("%w: device %q", ErrDuplicateGUID, name)
	}
	s.nextDeviceID++
	id := s.nextDeviceID
	s.devices[id] = &Device{
		ID:             id,
		Name:           name,
		GUID:           bytes.Clone(guid),
		ManufacturerID: manufacturerID,
		ProductID:      productID,
	}
	s.devicesByGUID[key] = id
	return id, nil
}

// AddChannel registers a channel on an existing device. Channel names
// are unique across the whole world, not just within the device.
func (s *State) AddChannel(deviceID int32, params ChannelParams) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[deviceID]
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrUnknownDevice, deviceID)
	}
	if _, ok := s.channelsByName[params.Name]; ok {
		return 0, fmt.Errorf("%w: channel %q", ErrDuplicateName, params.Name)
	}

	s.nextChannelID++
	id := s.nextChannelID
	channel := &Channel{
		ID:       id,
		DeviceID: deviceID,
		Number:   uint8(len(device.ChannelIDs)),
		Name:     params.Name,
		Caption:  params.Caption,
		Type:     params.Type,
		Func:     params.Func,
		Flags:    params.Flags,
		AltIcon:  params.AltIcon,
		Value:    proto.EmptyChannelValue(),
		Config:   params.Config,
	}
	if !params.Icons.empty() {
		channel.UserIcon = s.internIconLocked(params.Icons)
	}
	s.channels[id] = channel
	s.channelsByName[params.Name] = id
	device.ChannelIDs = append(device.ChannelIDs, id)
	return id, nil
}

// AddScene registers a scene. Step channel names are resolved lazily at
// execution time, so scenes may be configured before their channels.
func (s *State) AddScene(params SceneParams) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSceneID++
	id := s.nextSceneID
	scene := &Scene{
		ID:      id,
		Name:    params.Name,
		Caption: params.Caption,
		AltIcon: params.AltIcon,
		Steps:   append([]SceneStep(nil), params.Steps...),
	}
	if !params.Icons.empty() {
		scene.UserIcon = s.internIconLocked(params.Icons)
	}
	s.scenes[id] = scene
	return id, nil
}

// RegisterClient returns the client id for a GUID, creating the client
// on first sight.
func (s *State) RegisterClient(guid []byte, name string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := string(guid)
	if id, ok := s.clientsByGUID[key]; ok {
		return id
	}
	s.nextClientID++
	id := s.nextClientID
	s.clients[id] = &Client{
		ID:   id,
		Name: name,
		GUID: bytes.Clone(guid),
	}
	s.clientsByGUID[key] = id
	return id
}

// DeviceConnected transitions a device to online and binds its event
// queue. Returns false if the device is already online.
func (s *State) DeviceConnected(deviceID int32, protoVersion uint8, queue *events.Queue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[deviceID]
	if !ok || device.Online {
		return false
	}
	device.Online = true
	device.ProtoVersion = protoVersion
	s.deviceQueues[deviceID] = queue
	return true
}

// DeviceDisconnected transitions a device to offline and unbinds its
// queue.
func (s *State) DeviceDisconnected(deviceID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[deviceID]
	if !ok || !device.Online {
		return
	}
	device.Online = false
	delete(s.deviceQueues, deviceID)
}

// ClientConnected binds a client's event queue. Returns false if the
// client already has an active connection.
func (s *State) ClientConnected(clientID int32, queue *events.Queue) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok || client.Connected {
		return false
	}
	client.Connected = true
	s.clientQueues[clientID] = queue
	return true
}

func (s *State) ClientDisconnected(clientID int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[clientID]
	if !ok || !client.Connected {
		return
	}
	client.Connected = false
	client.Authorized = false
	delete(s.clientQueues, clientID)
}

// SetClientAuthorized records the outcome of a superuser authorization.
func (s *State) SetClientAuthorized(clientID int32, authorized bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if client, ok := s.clients[clientID]; ok {
		client.Authorized = authorized
	}
}

// SetChannelValue replaces a channel's value. Dimmer channels retain
// the most recent non-zero brightness in LastValue so TURN_ON can
// restore it.
func (s *State) SetChannelValue(channelID int32, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, ok := s.channels[channelID]
	if !ok {
		return fmt.Errorf("%w: id %d", ErrUnknownChannel, channelID)
	}
	normalized := proto.EmptyChannelValue()
	copy(normalized, value)
	channel.Value = normalized
	if channel.Type == proto.ChannelTypeDimmer && proto.DimmerBrightness(normalized) != 0 {
		channel.LastValue = bytes.Clone(normalized)
	}
	return nil
}

// Device returns a snapshot of a device by id.
func (s *State) Device(id int32) (Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[id]
	if !ok {
		return Device{}, false
	}
	return snapshotDevice(device), true
}

// DeviceByGUID returns a snapshot of a device by its configured GUID.
func (s *State) DeviceByGUID(guid []byte) (Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.devicesByGUID[string(guid)]
	if !ok {
		return Device{}, false
	}
	return snapshotDevice(s.devices[id]), true
}

// Devices returns snapshots of all devices ordered by id.
func (s *State) Devices() []Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Device, 0, len(s.devices))
	for id := int32(1); id <= s.nextDeviceID; id++ {
		if device, ok := s.devices[id]; ok {
			out = append(out, snapshotDevice(device))
		}
	}
	return out
}

// Channel returns a snapshot of a channel by id.
func (s *State) Channel(id int32) (Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	channel, ok := s.channels[id]
	if !ok {
		return Channel{}, false
	}
	return snapshotChannel(channel), true
}

// ChannelByName resolves a channel by its world-unique name.
func (s *State) ChannelByName(name string) (Channel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.channelsByName[name]
	if !ok {
		return Channel{}, false
	}
	return snapshotChannel(s.channels[id]), true
}

// Channels returns snapshots of all channels ordered by id.
func (s *State) Channels() []Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Channel, 0, len(s.channels))
	for id := int32(1); id <= s.nextChannelID; id++ {
		if channel, ok := s.channels[id]; ok {
			out = append(out, snapshotChannel(channel))
		}
	}
	return out
}

// ChannelCount reports the number of configured channels.
func (s *State) ChannelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.channels)
}

// Scene returns a snapshot of a scene by id.
func (s *State) Scene(id int32) (Scene, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	scene, ok := s.scenes[id]
	if !ok {
		return Scene{}, false
	}
	return snapshotScene(scene), true
}

// Scenes returns snapshots of all scenes ordered by id.
func (s *State) Scenes() []Scene {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Scene, 0, len(s.scenes))
	for id := int32(1); id <= s.nextSceneID; id++ {
		if scene, ok := s.scenes[id]; ok {
			out = append(out, snapshotScene(scene))
		}
	}
	return out
}

// SceneCount reports the number of configured scenes.
func (s *State) SceneCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scenes)
}

// Client returns a snapshot of a client by id.
func (s *State) Client(id int32) (Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	client, ok := s.clients[id]
	if !ok {
		return Client{}, false
	}
	return snapshotClient(client), true
}

// DeviceQueue returns the event queue of a connected device.
func (s *State) DeviceQueue(deviceID int32) (*events.Queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, ok := s.deviceQueues[deviceID]
	return queue, ok
}

// ClientQueue returns the event queue of a connected client.
func (s *State) ClientQueue(clientID int32) (*events.Queue, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, ok := s.clientQueues[clientID]
	return queue, ok
}

// ClientQueues returns the queues of all connected clients, for fan-out.
func (s *State) ClientQueues() []*events.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*events.Queue, 0, len(s.clientQueues))
	for id := int32(1); id <= s.nextClientID; id++ {
		if queue, ok := s.clientQueues[id]; ok {
			out = append(out, queue)
		}
	}
	return out
}

// ServerQueue returns the global server-scope queue.
func (s *State) ServerQueue() *events.Queue {
	return s.serverQueue
}

func snapshotDevice(d *Device) Device {
	out := *d
	out.GUID = bytes.Clone(d.GUID)
	out.ChannelIDs = append([]int32(nil), d.ChannelIDs...)
	return out
}

func snapshotChannel(c *Channel) Channel {
	out := *c
	out.Value = bytes.Clone(c.Value)
	out.LastValue = bytes.Clone(c.LastValue)
	return out
}

func snapshotScene(sc *Scene) Scene {
	out := *sc
	out.Steps = append([]SceneStep(nil), sc.Steps...)
	return out
}

func snapshotClient(c *Client) Client {
	out := *c
	out.GUID = bytes.Clone(c.GUID)
	return out
}
