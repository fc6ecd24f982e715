package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements so that device,
// client and server logs can be aggregated and queried together.
const (
	// ========================================================================
	// Connection & Peer
	// ========================================================================
	KeyPeer       = "peer"        // Peer tag: device[name], client[name], conn[n]
	KeyConnID     = "conn_id"     // Server-local connection sequence number
	KeyRemoteAddr = "remote_addr" // Remote TCP address of the peer
	KeyProto      = "proto"       // Negotiated protocol version

	// ========================================================================
	// Protocol Operations
	// ========================================================================
	KeyCall   = "call"   // Protocol call name (DCS_PING_SERVER, ...)
	KeyEvent  = "event"  // Event name (CHANNEL_VALUE_CHANGED, ...)
	KeyScope  = "scope"  // Event scope: server, device, client
	KeyResult = "result" // Result code of an operation

	// ========================================================================
	// World Entities
	// ========================================================================
	KeyDevice        = "device_id"      // Device identifier
	KeyClient        = "client_id"      // Client identifier
	KeyChannel       = "channel_id"     // Channel identifier
	KeyChannelNumber = "channel_number" // Device-local channel number
	KeyScene         = "scene_id"       // Scene identifier
	KeyGUID          = "guid"           // Peer GUID in hex

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyError      = "error"       // Error message
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyCount      = "count"       // Generic count field
)

// Peer returns a slog.Attr for the peer tag
func Peer(tag string) slog.Attr {
	return slog.String(KeyPeer, tag)
}

// ConnID returns a slog.Attr for the connection sequence number
func ConnID(id uint64) slog.Attr {
	return slog.Uint64(KeyConnID, id)
}

// RemoteAddr returns a slog.Attr for the remote address
func RemoteAddr(addr string) slog.Attr {
	return slog.String(KeyRemoteAddr, addr)
}

// Call returns a slog.Attr for a protocol call name
func Call(name string) slog.Attr {
	return slog.String(KeyCall, name)
}

// Event returns a slog.Attr for an event name
func Event(name string) slog.Attr {
	return slog.String(KeyEvent, name)
}

// Scope returns a slog.Attr for an event scope
func Scope(name string) slog.Attr {
	return slog.String(KeyScope, name)
}

// Device returns a slog.Attr for a device identifier
func Device(id int32) slog.Attr {
	return slog.Int(KeyDevice, int(id))
}

// Client returns a slog.Attr for a client identifier
func Client(id int32) slog.Attr {
	return slog.Int(KeyClient, int(id))
}

// Channel returns a slog.Attr for a channel identifier
func Channel(id int32) slog.Attr {
	return slog.Int(KeyChannel, int(id))
}

// Scene returns a slog.Attr for a scene identifier
func Scene(id int32) slog.Attr {
	return slog.Int(KeyScene, int(id))
}

// GUID returns a slog.Attr for a peer GUID (formatted as hex)
func GUID(guid []byte) slog.Attr {
	return slog.String(KeyGUID, fmt.Sprintf("%x", guid))
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
