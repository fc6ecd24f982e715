package server

import (
	"bytes"
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/supla-lite/suplad/internal/logger"
	"github.com/supla-lite/suplad/pkg/encoding"
	"github.com/supla-lite/suplad/pkg/proto"
	"github.com/supla-lite/suplad/pkg/server/events"
)

// handleRegisterClient creates or reuses the client for the presented
// GUID and binds this connection to it. A second concurrent session for
// the same GUID is rejected.
func (s *Server) handleRegisterClient(ctx context.Context, c *Conn, data []byte) error {
	req, err := decode[proto.TCS_RegisterClient_D](data)
	if err != nil {
		return err
	}

	if !c.unregistered() {
		return errAlreadyRegistered
	}

	clientID := s.state.RegisterClient(req.GUID, req.Name)

	if !s.state.ClientConnected(clientID, c.queue) {
		c.log.Warn("duplicate client session",
			logger.Client(clientID),
			logger.GUID(req.GUID))
		s.metrics.RecordRegistration("client", "duplicate")
		if err := c.send(proto.SC_REGISTER_CLIENT_RESULT_D, proto.TSC_RegisterClientResult_D{
			ResultCode:          proto.ResultFalse,
			ClientID:            clientID,
			LocationCount:       1,
			ChannelCount:        int16(s.state.ChannelCount()),
			SceneCount:          int16(s.state.SceneCount()),
			ActivityTimeout:     uint8(c.getActivityTimeout() / time.Second),
			Version:             proto.Version,
			VersionMin:          proto.VersionMin,
			ServerUnixTimestamp: uint64(time.Now().Unix()),
		}); err != nil {
			return err
		}
		return errDuplicateSession
	}

	c.setRegistered(peerClient, clientID, "client["+req.Name+"]")
	c.setPump(events.SendLocations, events.SendChannels, events.SendScenes)
	s.metrics.RecordRegistration("client", "accepted")
	c.log.Info("client registered", logger.Client(clientID))

	if err := c.send(proto.SC_REGISTER_CLIENT_RESULT_D, proto.TSC_RegisterClientResult_D{
		ResultCode:          proto.ResultTrue,
		ClientID:            clientID,
		LocationCount:       1,
		ChannelCount:        int16(s.state.ChannelCount()),
		SceneCount:          int16(s.state.SceneCount()),
		ActivityTimeout:     uint8(c.getActivityTimeout() / time.Second),
		Version:             proto.Version,
		VersionMin:          proto.VersionMin,
		ServerUnixTimestamp: uint64(time.Now().Unix()),
	}); err != nil {
		return err
	}

	s.state.ServerQueue().Push(events.ClientConnected, clientID)
	return nil
}

// handleGetNext advances the post-registration pump: locations, then
// channels, then scenes. Once drained it is a no-op.
func (s *Server) handleGetNext(ctx context.Context, c *Conn, data []byte) error {
	if _, err := c.registeredClient(); err != nil {
		return err
	}
	if next, ok := c.popPump(); ok {
		c.queue.Push(next)
	}
	return nil
}

func (s *Server) handleExecuteAction(ctx context.Context, c *Conn, data []byte) error {
	clientID, err := c.registeredClient()
	if err != nil {
		return err
	}

	req, err := decode[proto.TCS_Action](data)
	if err != nil {
		// an unrecognized action or subject is a request error, not a
		// connection error
		c.log.Warn("malformed action request", logger.Err(err))
		return c.send(proto.SC_ACTION_EXECUTION_RESULT, proto.TSC_ActionExecutionResult{
			ResultCode: proto.ResultFalse,
		})
	}

	result := proto.ResultFalse
	if s.executeAction(c, clientID, req) {
		result = proto.ResultTrue
	}

	return c.send(proto.SC_ACTION_EXECUTION_RESULT, proto.TSC_ActionExecutionResult{
		ResultCode:  result,
		ActionID:    req.ActionID,
		SubjectID:   req.SubjectID,
		SubjectType: req.SubjectType,
	})
}

// handleSetValue applies a raw value to channel state and forwards it
// to the owning device. One-way; invalid requests are dropped with a
// log entry.
func (s *Server) handleSetValue(ctx context.Context, c *Conn, data []byte) error {
	clientID, err := c.registeredClient()
	if err != nil {
		return err
	}

	req, err := decode[proto.TCS_NewValue](data)
	if err != nil {
		c.log.Warn("malformed set-value request", logger.Err(err))
		return nil
	}
	if req.Target != proto.TargetChannel {
		c.log.Warn("set value for unsupported target",
			slog.Int("target", int(req.Target)))
		return nil
	}

	if err := s.state.SetChannelValue(req.ValueID, req.Value); err != nil {
		c.log.Warn("set value for unknown channel", logger.Channel(req.ValueID))
		return nil
	}

	s.state.ServerQueue().Push(events.ChannelSetValue,
		req.ValueID, bytes.Clone(req.Value), clientID)
	return nil
}

func (s *Server) handleGetChannelConfig(ctx context.Context, c *Conn, data []byte) error {
	if _, err := c.registeredClient(); err != nil {
		return err
	}

	req, err := decode[proto.TCS_GetChannelConfigRequest](data)
	if err != nil {
		return err
	}

	reply := proto.TSC_ChannelConfigUpdateOrResult{
		Result: proto.ConfigResultFalse,
		Config: proto.TSCS_ChannelConfig{
			ChannelID:  req.ChannelID,
			ConfigType: req.ConfigType,
		},
	}

	channel, ok := s.state.Channel(req.ChannelID)
	switch {
	case !ok:
		reply.Result = proto.ConfigResultFalse
	case req.ConfigType != proto.ConfigTypeDefault:
		reply.Result = proto.ConfigResultTypeNotSupport
	case channel.Config == nil:
		reply.Result = proto.ConfigResultFalse
	default:
		config, err := encoding.Marshal(*channel.Config)
		if err != nil {
			return err
		}
		reply.Result = proto.ConfigResultTrue
		reply.Config.Func = channel.Func
		reply.Config.Config = config
	}

	return c.send(proto.SC_CHANNEL_CONFIG_UPDATE_OR_RESULT, reply)
}

// handleGetChannelState forwards a state query to the owning device.
// The device will answer with receiver_id set to this client.
func (s *Server) handleGetChannelState(ctx context.Context, c *Conn, data []byte) error {
	clientID, err := c.registeredClient()
	if err != nil {
		return err
	}

	req, err := decode[proto.TCS_ChannelStateRequest](data)
	if err != nil {
		return err
	}

	channel, ok := s.state.Channel(req.ChannelID)
	if !ok {
		c.log.Warn("state query for unknown channel", logger.Channel(req.ChannelID))
		return nil
	}
	deviceQueue, ok := s.state.DeviceQueue(channel.DeviceID)
	if !ok {
		c.log.Warn("state query for offline device", logger.Device(channel.DeviceID))
		return nil
	}

	deviceQueue.Push(events.GetChannelState, clientID, channel.Number)
	return nil
}

func (s *Server) handleSuperuserAuthorization(ctx context.Context, c *Conn, data []byte) error {
	clientID, err := c.registeredClient()
	if err != nil {
		return err
	}

	req, err := decode[proto.TCS_SuperUserAuthorizationRequest](data)
	if err != nil {
		return err
	}

	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.opts.SuperUserEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.opts.SuperUserPassword)) == 1
	authorized := s.opts.SuperUserEmail != "" && emailOK && passwordOK

	s.state.SetClientAuthorized(clientID, authorized)

	result := proto.ResultUnauthorized
	if authorized {
		result = proto.ResultAuthorized
	}
	c.log.Info("superuser authorization",
		logger.Client(clientID),
		slog.String("result", result.String()))

	return c.send(proto.SC_SUPERUSER_AUTHORIZATION_RESULT, proto.TSC_SuperUserAuthorizationResult{
		Result: result,
	})
}

func (s *Server) handleOAuthTokenRequest(ctx context.Context, c *Conn, data []byte) error {
	if _, err := c.registeredClient(); err != nil {
		return err
	}

	token, err := newOAuthToken(s.opts.APIURL)
	if err != nil {
		c.log.Error("failed to issue oauth token", logger.Err(err))
		return c.send(proto.SC_OAUTH_TOKEN_REQUEST_RESULT, proto.TSC_OAuthTokenRequestResult{
			ResultCode: proto.OAuthResultError,
		})
	}

	return c.send(proto.SC_OAUTH_TOKEN_REQUEST_RESULT, proto.TSC_OAuthTokenRequestResult{
		ResultCode: proto.OAuthResultSuccess,
		Token: proto.TSC_OAuthToken{
			ExpiresIn: oauthTokenLifetime,
			Token:     token,
		},
	})
}

// handleDeviceCalCfgRequest forwards a calibration/configuration request
// to the owning device, tagging it with the client's authorization.
func (s *Server) handleDeviceCalCfgRequest(ctx context.Context, c *Conn, data []byte) error {
	clientID, err := c.registeredClient()
	if err != nil {
		return err
	}

	req, err := decode[proto.TCS_DeviceCalCfgRequest_B](data)
	if err != nil {
		return err
	}

	refuse := func() error {
		return c.send(proto.SC_DEVICE_CALCFG_RESULT, proto.TSC_DeviceCalCfgResult{
			ChannelID: req.ChannelID,
			Command:   req.Command,
		})
	}

	channel, ok := s.state.Channel(req.ChannelID)
	if !ok {
		c.log.Warn("calcfg for unknown channel", logger.Channel(req.ChannelID))
		return refuse()
	}
	deviceQueue, ok := s.state.DeviceQueue(channel.DeviceID)
	if !ok {
		c.log.Warn("calcfg for offline device", logger.Device(channel.DeviceID))
		return refuse()
	}

	client, _ := s.state.Client(clientID)
	deviceQueue.Push(events.DeviceConfig, &proto.TSD_DeviceCalCfgRequest{
		SenderID:            clientID,
		ChannelNumber:       int32(channel.Number),
		Command:             req.Command,
		SuperUserAuthorized: client.Authorized,
		DataType:            req.DataType,
		Data:                bytes.Clone(req.Data),
	})
	return nil
}

// Push notification delivery is not implemented; token registration is
// acknowledged negatively so clients do not wait for pushes.
func (s *Server) handleRegisterPnClientToken(ctx context.Context, c *Conn, data []byte) error {
	if _, err := c.registeredClient(); err != nil {
		return err
	}
	if _, err := decode[proto.TCS_RegisterPnClientToken](data); err != nil {
		return err
	}
	return c.send(proto.SC_REGISTER_PN_CLIENT_TOKEN_RESULT, proto.TSC_RegisterPnClientTokenResult{
		ResultCode: proto.ResultFalse,
	})
}
