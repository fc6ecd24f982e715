package config

// ExampleConfig returns a ready-to-run configuration with a small
// demonstration world: one multi-channel device with relays, sensors
// and a general purpose meter, one dimmer device, and a scene. Written
// by `suplad init` as a starting point.
func ExampleConfig() *Config {
	cfg := GetDefaultConfig()
	cfg.Server.APIURL = "https://localhost:8080"
	cfg.Server.SuperUserEmail = "email@example.com"
	cfg.Server.SuperUserPassword = "change-me"

	cfg.Devices = []DeviceConfig{
		{
			Name: "test",
			GUID: "eeeeeeeee534d1a706ac5f416719899e",
			Channels: []ChannelConfig{
				{Name: "relay", Caption: "Relay", Type: "RELAY", Func: "POWER_SWITCH"},
				{Name: "thermometer", Caption: "Thermometer", Type: "THERMOMETER", Func: "THERMOMETER"},
				{Name: "humidity", Caption: "Humidity", Type: "HUMIDITY_SENSOR", Func: "HUMIDITY"},
				{
					Name:    "temperature-and-humidity",
					Caption: "Temperature and Humidity",
					Type:    "HUMIDITY_AND_TEMP",
					Func:    "HUMIDITY_AND_TEMP",
				},
				{Name: "fan", Caption: "Fan", Type: "RELAY", Func: "POWER_SWITCH", AltIcon: 4},
				{Name: "tv", Caption: "TV", Type: "RELAY", Func: "POWER_SWITCH", AltIcon: 1},
				{Name: "lights", Caption: "Lights", Type: "RELAY", Func: "LIGHT_SWITCH"},
				{
					Name:    "car-battery",
					Caption: "Car Battery",
					Type:    "GENERAL_PURPOSE_METER",
					Func:    "GENERAL_PURPOSE_METER",
					GPM: &GPMConfig{
						UnitAfterValue: "%",
						ValuePrecision: 1,
					},
				},
			},
		},
		{
			Name:           "lounge-lights",
			GUID:           "56fd454d0cc07f1be04e5c0bfeb207a9",
			ManufacturerID: 7,
			ProductID:      1,
			Channels: []ChannelConfig{
				{Name: "lounge-lights", Caption: "Lounge", Type: "DIMMER", Func: "DIMMER"},
			},
		},
	}

	cfg.Scenes = []SceneConfig{
		{
			Name:    "movie-night",
			Caption: "Movie Night",
			Steps: []SceneStepConfig{
				{Channel: "tv", Action: "TURN_ON"},
				{Channel: "lights", Action: "TURN_OFF"},
			},
		},
	}

	return cfg
}
