package server

import (
	"context"
	"time"

	"github.com/supla-lite/suplad/pkg/proto"
)

func clampActivityTimeout(seconds uint8) uint8 {
	if seconds < proto.ActivityTimeoutMin {
		return proto.ActivityTimeoutMin
	}
	if seconds > proto.ActivityTimeoutMax {
		return proto.ActivityTimeoutMax
	}
	return seconds
}

func timeoutDuration(seconds uint8) time.Duration {
	return time.Duration(seconds) * time.Second
}

// Calls available to both devices and clients, registered or not.

func (s *Server) handlePing(ctx context.Context, c *Conn, data []byte) error {
	return c.send(proto.SDC_PING_SERVER_RESULT, proto.TSDC_PingServerResult{
		Now: proto.NowTimeVal(),
	})
}

// Dynamic onboarding is not supported, so registration is reported as
// never having been enabled.
func (s *Server) handleGetRegistrationEnabled(ctx context.Context, c *Conn, data []byte) error {
	return c.send(proto.SDC_GET_REGISTRATION_ENABLED_RESULT, proto.TSDC_RegistrationEnabled{})
}

func (s *Server) handleSetActivityTimeout(ctx context.Context, c *Conn, data []byte) error {
	req, err := decode[proto.TDCS_SetActivityTimeout](data)
	if err != nil {
		return err
	}

	timeout := clampActivityTimeout(req.ActivityTimeout)
	c.setActivityTimeout(timeoutDuration(timeout))

	return c.send(proto.SDC_SET_ACTIVITY_TIMEOUT_RESULT, proto.TSDC_SetActivityTimeoutResult{
		ActivityTimeout: timeout,
		Min:             proto.ActivityTimeoutMin,
		Max:             proto.ActivityTimeoutMax,
	})
}
