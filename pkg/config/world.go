package config

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/supla-lite/suplad/pkg/encoding"
	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server"
	"github.com/supla-lite/suplad/pkg/server/state"
)

// DeviceConfig declares one device of the static world.
type DeviceConfig struct {
	// Name identifies the device in logs and scene references
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// GUID is the 16-byte device identity, hex encoded (32 characters).
	// Registration is rejected for devices with unknown GUIDs.
	GUID string `mapstructure:"guid" validate:"required,len=32,hexadecimal" yaml:"guid"`

	// ManufacturerID and ProductID must match what the device reports
	// at registration
	ManufacturerID int16 `mapstructure:"manufacturer_id" yaml:"manufacturer_id,omitempty"`
	ProductID      int16 `mapstructure:"product_id" yaml:"product_id,omitempty"`

	// Channels in device-local number order (index 0 is channel 0)
	Channels []ChannelConfig `mapstructure:"channels" validate:"required,min=1,dive" yaml:"channels"`
}

// ChannelConfig declares one channel on a device.
type ChannelConfig struct {
	// Name is the world-wide unique channel identifier used by scene
	// steps
	Name string `mapstructure:"name" validate:"required" yaml:"name"`

	// Caption is the human-readable label sent to clients
	Caption string `mapstructure:"caption" yaml:"caption,omitempty"`

	// Type is the hardware channel type name, e.g. RELAY, DIMMER,
	// THERMOMETER, GENERAL_PURPOSE_METER
	Type string `mapstructure:"type" validate:"required" yaml:"type"`

	// Func is the channel function name, e.g. LIGHT_SWITCH,
	// POWER_SWITCH, DIMMER
	Func string `mapstructure:"func" yaml:"func,omitempty"`

	// Flags lists channel capability flag names, e.g. CHANNEL_STATE
	Flags []string `mapstructure:"flags" yaml:"flags,omitempty"`

	// AltIcon selects one of the client's built-in icon variants
	AltIcon int32 `mapstructure:"alt_icon" yaml:"alt_icon,omitempty"`

	// Icons carries custom icon images, overriding AltIcon on capable
	// clients
	Icons IconConfig `mapstructure:"icons" yaml:"icons,omitempty"`

	// GPM configures general purpose measurement presentation; only
	// meaningful for GENERAL_PURPOSE_METER channels
	GPM *GPMConfig `mapstructure:"gpm" yaml:"gpm,omitempty"`
}

// IconConfig declares a set of custom icon images. Each entry is either
// base64-encoded image bytes or, when prefixed with "@", a path to an
// image file read at startup.
type IconConfig struct {
	Images     []string `mapstructure:"images" yaml:"images,omitempty"`
	ImagesDark []string `mapstructure:"images_dark" yaml:"images_dark,omitempty"`
}

// GPMConfig configures how clients present a general purpose
// measurement channel. Raw values are transformed as
// value/divider*multiplier + added, shown with the configured precision
// and units.
type GPMConfig struct {
	ValueDivider       int32  `mapstructure:"value_divider" yaml:"value_divider,omitempty"`
	ValueMultiplier    int32  `mapstructure:"value_multiplier" yaml:"value_multiplier,omitempty"`
	ValueAdded         int64  `mapstructure:"value_added" yaml:"value_added,omitempty"`
	ValuePrecision     uint8  `mapstructure:"value_precision" validate:"omitempty,max=4" yaml:"value_precision,omitempty"`
	UnitBeforeValue    string `mapstructure:"unit_before_value" yaml:"unit_before_value,omitempty"`
	UnitAfterValue     string `mapstructure:"unit_after_value" yaml:"unit_after_value,omitempty"`
	NoSpaceBeforeValue bool   `mapstructure:"no_space_before_value" yaml:"no_space_before_value,omitempty"`
	NoSpaceAfterValue  bool   `mapstructure:"no_space_after_value" yaml:"no_space_after_value,omitempty"`
	KeepHistory        bool   `mapstructure:"keep_history" yaml:"keep_history,omitempty"`

	// ChartType is LINEAR, BAR or CANDLE
	// Default: LINEAR
	ChartType string `mapstructure:"chart_type" validate:"omitempty,oneof=LINEAR BAR CANDLE linear bar candle" yaml:"chart_type,omitempty"`

	RefreshIntervalMS uint16 `mapstructure:"refresh_interval_ms" yaml:"refresh_interval_ms,omitempty"`
}

// SceneConfig declares a named sequence of channel actions.
type SceneConfig struct {
	Name    string `mapstructure:"name" validate:"required" yaml:"name"`
	Caption string `mapstructure:"caption" yaml:"caption,omitempty"`
	AltIcon int32  `mapstructure:"alt_icon" yaml:"alt_icon,omitempty"`

	Icons IconConfig `mapstructure:"icons" yaml:"icons,omitempty"`

	Steps []SceneStepConfig `mapstructure:"steps" validate:"required,min=1,dive" yaml:"steps"`
}

// SceneStepConfig is one action of a scene, targeting a channel by
// name.
type SceneStepConfig struct {
	// Channel is the name of the target channel
	Channel string `mapstructure:"channel" validate:"required" yaml:"channel"`

	// Action is the action type name, e.g. TURN_ON, TURN_OFF, TOGGLE,
	// SET_RGBW_PARAMETERS
	Action string `mapstructure:"action" validate:"required" yaml:"action"`

	// RGBW carries the parameters for SET_RGBW_PARAMETERS actions
	RGBW *RGBWConfig `mapstructure:"rgbw" yaml:"rgbw,omitempty"`
}

// RGBWConfig is the parameter block of a SET_RGBW_PARAMETERS step.
type RGBWConfig struct {
	Brightness      int8   `mapstructure:"brightness" validate:"min=-1,max=100" yaml:"brightness"`
	ColorBrightness int8   `mapstructure:"color_brightness" validate:"min=-1,max=100" yaml:"color_brightness,omitempty"`
	Color           uint32 `mapstructure:"color" yaml:"color,omitempty"`
	ColorRandom     bool   `mapstructure:"color_random" yaml:"color_random,omitempty"`
	OnOff           bool   `mapstructure:"on_off" yaml:"on_off,omitempty"`
}

var channelTypeNames = map[string]proto.ChannelType{
	"SENSOR_NO":             proto.ChannelTypeSensorNO,
	"RELAY":                 proto.ChannelTypeRelay,
	"THERMOMETER":           proto.ChannelTypeThermometer,
	"HUMIDITY_SENSOR":       proto.ChannelTypeHumiditySensor,
	"HUMIDITY_AND_TEMP":     proto.ChannelTypeHumidityAndTemp,
	"DIMMER":                proto.ChannelTypeDimmer,
	"RGB_LED_CONTROLLER":    proto.ChannelTypeRGBLedController,
	"DIMMER_AND_RGB_LED":    proto.ChannelTypeDimmerAndRGBLed,
	"GENERAL_PURPOSE_METER": proto.ChannelTypeGeneralPurposeMeter,
}

var channelFuncNames = map[string]proto.ChannelFunc{
	"NONE":                  proto.ChannelFuncNone,
	"THERMOMETER":           proto.ChannelFuncThermometer,
	"HUMIDITY":              proto.ChannelFuncHumidity,
	"HUMIDITY_AND_TEMP":     proto.ChannelFuncHumidityAndTemp,
	"POWER_SWITCH":          proto.ChannelFuncPowerSwitch,
	"LIGHT_SWITCH":          proto.ChannelFuncLightSwitch,
	"DIMMER":                proto.ChannelFuncDimmer,
	"GENERAL_PURPOSE_METER": proto.ChannelFuncGeneralPurposeMeter,
}

var channelFlagNames = map[string]proto.ChannelFlag{
	"ZWAVE_BRIDGE":           proto.ChannelFlagZWaveBridge,
	"RS_AUTO_CALIBRATION":    proto.ChannelFlagRSAutoCalibration,
	"RGBW_COMMANDS_SUPPORT":  proto.ChannelFlagRGBWCommandsSupport,
	"CHANNEL_STATE":          proto.ChannelFlagChannelState,
	"RUNTIME_CHANNEL_CONFIG": proto.ChannelFlagRuntimeChannelConfig,
}

var actionNames = map[string]proto.ActionType{
	"OPEN":                proto.ActionOpen,
	"CLOSE":               proto.ActionClose,
	"SHUT":                proto.ActionShut,
	"REVEAL":              proto.ActionReveal,
	"TURN_ON":             proto.ActionTurnOn,
	"TURN_OFF":            proto.ActionTurnOff,
	"SET_RGBW_PARAMETERS": proto.ActionSetRGBWParameters,
	"OPEN_CLOSE":          proto.ActionOpenClose,
	"STOP":                proto.ActionStop,
	"TOGGLE":              proto.ActionToggle,
	"UP_OR_STOP":          proto.ActionUpOrStop,
	"DOWN_OR_STOP":        proto.ActionDownOrStop,
	"STEP_BY_STEP":        proto.ActionStepByStep,
	"INTERRUPT":           proto.ActionInterrupt,
	"EXECUTE":             proto.ActionExecute,
	"READ":                proto.ActionRead,
}

var chartTypeNames = map[string]proto.GPMChartType{
	"LINEAR": proto.GPMChartLinear,
	"BAR":    proto.GPMChartBar,
	"CANDLE": proto.GPMChartCandle,
}

// BuildState constructs the world registry from the configured devices
// and scenes. Names, GUIDs, enum values and icon payloads are resolved
// here; any inconsistency fails startup rather than a later
// registration.
func (cfg *Config) BuildState() (*state.State, error) {
	st := state.New()

	channelNames := make(map[string]struct{})
	for _, dev := range cfg.Devices {
		guid, err := hex.DecodeString(dev.GUID)
		if err != nil || len(guid) != proto.GUIDSize {
			return nil, fmt.Errorf("device %q: guid must be %d hex bytes", dev.Name, proto.GUIDSize)
		}

		deviceID, err := st.AddDevice(dev.Name, guid, dev.ManufacturerID, dev.ProductID)
		if err != nil {
			return nil, err
		}

		for _, ch := range dev.Channels {
			params, err := ch.channelParams()
			if err != nil {
				return nil, fmt.Errorf("device %q: %w", dev.Name, err)
			}
			if _, err := st.AddChannel(deviceID, params); err != nil {
				return nil, err
			}
			channelNames[ch.Name] = struct{}{}
		}
	}

	for _, scn := range cfg.Scenes {
		params, err := scn.sceneParams(channelNames)
		if err != nil {
			return nil, err
		}
		if _, err := st.AddScene(params); err != nil {
			return nil, err
		}
	}

	return st, nil
}

// ServerOptions converts the server section into protocol server
// options. TLS material is not loaded here; the caller wires the
// tls.Config when both cert and key files are set.
func (cfg *ServerConfig) ServerOptions() server.Options {
	return server.Options{
		Addr:              cfg.Listen,
		TLSAddr:           cfg.TLSListen,
		APIURL:            cfg.APIURL,
		LocationCaption:   cfg.LocationCaption,
		SuperUserEmail:    cfg.SuperUserEmail,
		SuperUserPassword: cfg.SuperUserPassword,
		ActivityTimeout:   cfg.ActivityTimeout,
		MinProtoVersion:   cfg.MinProtoVersion,
	}
}

func (ch ChannelConfig) channelParams() (state.ChannelParams, error) {
	typ, ok := channelTypeNames[strings.ToUpper(ch.Type)]
	if !ok {
		return state.ChannelParams{}, fmt.Errorf("channel %q: unknown type %q", ch.Name, ch.Type)
	}

	fn := proto.ChannelFuncNone
	if ch.Func != "" {
		fn, ok = channelFuncNames[strings.ToUpper(ch.Func)]
		if !ok {
			return state.ChannelParams{}, fmt.Errorf("channel %q: unknown func %q", ch.Name, ch.Func)
		}
	}

	var flags proto.ChannelFlag
	for _, name := range ch.Flags {
		flag, ok := channelFlagNames[strings.ToUpper(name)]
		if !ok {
			return state.ChannelParams{}, fmt.Errorf("channel %q: unknown flag %q", ch.Name, name)
		}
		flags |= flag
	}

	icons, err := ch.Icons.iconSet()
	if err != nil {
		return state.ChannelParams{}, fmt.Errorf("channel %q: %w", ch.Name, err)
	}

	var gpm *proto.TChannelConfig_GeneralPurposeMeasurement
	if ch.GPM != nil {
		gpm, err = ch.GPM.protoConfig()
		if err != nil {
			return state.ChannelParams{}, fmt.Errorf("channel %q: %w", ch.Name, err)
		}
	}

	return state.ChannelParams{
		Name:    ch.Name,
		Caption: ch.Caption,
		Type:    typ,
		Func:    fn,
		Flags:   flags,
		AltIcon: ch.AltIcon,
		Icons:   icons,
		Config:  gpm,
	}, nil
}

func (scn SceneConfig) sceneParams(channelNames map[string]struct{}) (state.SceneParams, error) {
	icons, err := scn.Icons.iconSet()
	if err != nil {
		return state.SceneParams{}, fmt.Errorf("scene %q: %w", scn.Name, err)
	}

	steps := make([]state.SceneStep, 0, len(scn.Steps))
	for i, step := range scn.Steps {
		if _, ok := channelNames[step.Channel]; !ok {
			return state.SceneParams{}, fmt.Errorf("scene %q step %d: unknown channel %q", scn.Name, i, step.Channel)
		}
		action, ok := actionNames[strings.ToUpper(step.Action)]
		if !ok {
			return state.SceneParams{}, fmt.Errorf("scene %q step %d: unknown action %q", scn.Name, i, step.Action)
		}

		var param []byte
		if step.RGBW != nil {
			if action != proto.ActionSetRGBWParameters {
				return state.SceneParams{}, fmt.Errorf("scene %q step %d: rgbw parameters require the SET_RGBW_PARAMETERS action", scn.Name, i)
			}
			param, err = encoding.Marshal(proto.TAction_RGBW_Parameters{
				Brightness:      step.RGBW.Brightness,
				ColorBrightness: step.RGBW.ColorBrightness,
				Color:           step.RGBW.Color,
				ColorRandom:     step.RGBW.ColorRandom,
				OnOff:           step.RGBW.OnOff,
			})
			if err != nil {
				return state.SceneParams{}, fmt.Errorf("scene %q step %d: %w", scn.Name, i, err)
			}
		} else if action == proto.ActionSetRGBWParameters {
			return state.SceneParams{}, fmt.Errorf("scene %q step %d: SET_RGBW_PARAMETERS needs an rgbw block", scn.Name, i)
		}

		steps = append(steps, state.SceneStep{
			ChannelName: step.Channel,
			Action:      action,
			Param:       param,
		})
	}

	return state.SceneParams{
		Name:    scn.Name,
		Caption: scn.Caption,
		AltIcon: scn.AltIcon,
		Icons:   icons,
		Steps:   steps,
	}, nil
}

func (ic IconConfig) iconSet() (state.IconSet, error) {
	images, err := decodeIconImages(ic.Images)
	if err != nil {
		return state.IconSet{}, err
	}
	dark, err := decodeIconImages(ic.ImagesDark)
	if err != nil {
		return state.IconSet{}, err
	}
	return state.IconSet{Images: images, ImagesDark: dark}, nil
}

func decodeIconImages(entries []string) ([][]byte, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	out := make([][]byte, 0, len(entries))
	for _, entry := range entries {
		if path, ok := strings.CutPrefix(entry, "@"); ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("icon file %s: %w", path, err)
			}
			out = append(out, data)
			continue
		}
		data, err := base64.StdEncoding.DecodeString(entry)
		if err != nil {
			return nil, fmt.Errorf("icon image is neither base64 nor an @file path: %w", err)
		}
		out = append(out, data)
	}
	return out, nil
}

func (g *GPMConfig) protoConfig() (*proto.TChannelConfig_GeneralPurposeMeasurement, error) {
	chart := proto.GPMChartLinear
	if g.ChartType != "" {
		var ok bool
		chart, ok = chartTypeNames[strings.ToUpper(g.ChartType)]
		if !ok {
			return nil, fmt.Errorf("unknown chart type %q", g.ChartType)
		}
	}

	return &proto.TChannelConfig_GeneralPurposeMeasurement{
		ValueDivider:           g.ValueDivider,
		ValueMultiplier:        g.ValueMultiplier,
		ValueAdded:             g.ValueAdded,
		ValuePrecision:         g.ValuePrecision,
		UnitBeforeValue:        g.UnitBeforeValue,
		UnitAfterValue:         g.UnitAfterValue,
		NoSpaceBeforeValue:     g.NoSpaceBeforeValue,
		NoSpaceAfterValue:      g.NoSpaceAfterValue,
		KeepHistory:            g.KeepHistory,
		ChartType:              chart,
		RefreshIntervalMS:      g.RefreshIntervalMS,
		DefaultValueDivider:    g.ValueDivider,
		DefaultValueMultiplier: g.ValueMultiplier,
		DefaultValueAdded:      g.ValueAdded,
		DefaultValuePrecision:  g.ValuePrecision,
		DefaultUnitBeforeValue: g.UnitBeforeValue,
		DefaultUnitAfterValue:  g.UnitAfterValue,
	}, nil
}
