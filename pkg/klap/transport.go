package klap

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kasa-protocol/kasa-go/pkg/endpoint"
	"github.com/kasa-protocol/kasa-go/pkg/fault"
	"github.com/kasa-protocol/kasa-go/pkg/log"
	"github.com/kasa-protocol/kasa-go/pkg/transport"
	"github.com/kasa-protocol/kasa-go/pkg/wire"
)

// Endpoint paths.
const (
	Handshake1Path = "/app/handshake1"
	Handshake2Path = "/app/handshake2"
	RequestPath    = "/app/request"
)

// Session cookies.
const (
	SessionCookieName = "TP_SESSIONID"
	TimeoutCookieName = "TIMEOUT"
)

// Session states reported in protocol events.
const (
	sessionNone        = "NONE"
	sessionEstablished = "ESTABLISHED"
)

// Transport exchanges requests with one device over an authenticated KLAP
// session. Like the TCP transport it is not safe for concurrent use.
type Transport struct {
	config     Config
	ownsClient bool
	endpoint   endpoint.Endpoint
	address    string
	baseURL    string
	authHash   []byte

	session  *session
	disposed bool
}

// New creates a Transport bound to ep. The session is established on the
// first SendReceive.
func New(ep endpoint.Endpoint, config Config) *Transport {
	owns := config.applyDefaults()
	address := ep.Address(config.DefaultPort)
	return &Transport{
		config:     config,
		ownsClient: owns,
		endpoint:   ep,
		address:    address,
		baseURL:    "http://" + address,
		authHash:   AuthHash(config.Credentials),
	}
}

// Endpoint returns the endpoint the transport is bound to.
func (t *Transport) Endpoint() endpoint.Endpoint {
	return t.endpoint
}

// SessionID returns the local ID of the current session, or "" when none is
// established.
func (t *Transport) SessionID() string {
	if t.session == nil {
		return ""
	}
	return t.session.id
}

// SendReceive sends module.method with params and returns the projected
// result. A nil project returns the raw result as json.RawMessage.
func (t *Transport) SendReceive(ctx context.Context, module, method string, params any, project wire.Projection) (any, error) {
	if t.disposed {
		return nil, transport.ErrDisposed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if t.session != nil && t.session.expired(t.config.Now()) {
		t.dropSession("expired")
	}
	if t.session == nil {
		if err := t.handshake(ctx); err != nil {
			return nil, err
		}
	}

	plain, err := wire.EncodeEnvelope(module, method, params)
	if err != nil {
		return nil, err
	}
	seq, body, err := t.session.encrypt(plain)
	if err != nil {
		return nil, err
	}
	t.logMessage(log.DirectionOut, log.MessageTypeRequest, module, method, plain, nil)

	started := time.Now()
	query := url.Values{"seq": {strconv.Itoa(int(seq))}}
	status, resp, _, err := t.post(ctx, RequestPath, query, body, t.session.cookie)
	if err != nil {
		t.dropSession(fault.KindOf(err))
		return nil, err
	}
	switch status {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		t.dropSession("rejected")
		return nil, &AuthenticationError{Endpoint: t.address, Stage: StageRequest, Status: status, Err: ErrSessionRejected}
	default:
		t.dropSession("unexpected status")
		return nil, &StatusError{Endpoint: t.address, Path: RequestPath, Status: status}
	}

	decrypted, err := t.session.open(seq, resp)
	if err != nil {
		t.dropSession("undecryptable response")
		return nil, &transport.UnexpectedResponseError{Endpoint: t.address, Module: module, Method: method, Err: err}
	}

	result, err := wire.DecodeEnvelope(decrypted, module, method)
	if err != nil {
		return nil, transport.DecodeError(err, t.address, module, method)
	}
	rtt := time.Since(started)
	t.logMessage(log.DirectionIn, log.MessageTypeResponse, module, method, result, &rtt)

	return transport.Complete(result, t.address, module, method, project)
}

// Close disposes the transport. It is safe to call more than once.
func (t *Transport) Close() error {
	if t.disposed {
		return nil
	}
	t.dropSession("closed")
	t.disposed = true
	if t.ownsClient {
		t.config.HTTPClient.CloseIdleConnections()
	}
	t.debugLog("klap transport disposed", "address", t.address)
	return nil
}

// handshake establishes a new session.
func (t *Transport) handshake(ctx context.Context) error {
	local := make([]byte, SeedSize)
	if _, err := rand.Read(local); err != nil {
		return fmt.Errorf("failed to generate local seed: %w", err)
	}

	status, resp, cookies, err := t.post(ctx, Handshake1Path, nil, local, "")
	if err != nil {
		return err
	}
	if err := t.checkHandshakeStatus(StageHandshake1, Handshake1Path, status); err != nil {
		return err
	}
	if len(resp) != SeedSize+hashSize {
		return &AuthenticationError{
			Endpoint: t.address,
			Stage:    StageHandshake1,
			Err:      fmt.Errorf("response of %d bytes, want %d", len(resp), SeedSize+hashSize),
		}
	}

	remote := resp[:SeedSize]
	if !hmac.Equal(resp[SeedSize:], ServerHash(local, remote, t.authHash)) {
		return &AuthenticationError{Endpoint: t.address, Stage: StageHandshake1, Err: ErrServerHash}
	}

	cookie, timeout := sessionCookie(cookies)
	status, _, _, err = t.post(ctx, Handshake2Path, nil, ClientHash(local, remote, t.authHash), cookie)
	if err != nil {
		return err
	}
	if err := t.checkHandshakeStatus(StageHandshake2, Handshake2Path, status); err != nil {
		return err
	}

	if timeout > SessionExpiryMargin {
		timeout -= SessionExpiryMargin
	}
	s := newSession(local, remote, t.authHash)
	s.id = uuid.New().String()
	s.cookie = cookie
	s.expires = t.config.Now().Add(timeout)
	t.session = s

	t.logState(sessionNone, sessionEstablished, "")
	t.debugLog("klap session established", "address", t.address, "session", s.id, "expires", s.expires)
	return nil
}

func (t *Transport) checkHandshakeStatus(stage, path string, status int) error {
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthenticationError{Endpoint: t.address, Stage: stage, Status: status}
	default:
		return &StatusError{Endpoint: t.address, Path: path, Status: status}
	}
}

// dropSession forgets the current session.
func (t *Transport) dropSession(reason string) {
	if t.session == nil {
		return
	}
	t.logState(sessionEstablished, sessionNone, reason)
	t.debugLog("klap session dropped", "address", t.address, "session", t.session.id, "reason", reason)
	t.session = nil
}

// post sends body to path and returns the status, the full response body
// and the response cookies.
func (t *Transport) post(ctx context.Context, path string, query url.Values, body []byte, cookie string) (int, []byte, []*http.Cookie, error) {
	target := t.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, nil, nil, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: cookie})
	}

	resp, err := t.config.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, nil, t.classify(ctx, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, nil, ctxErr
		}
		return 0, nil, nil, &transport.IncompleteResponseError{Endpoint: t.address, Err: err}
	}
	return resp.StatusCode, data, resp.Cookies(), nil
}

// classify translates HTTP client errors into the fault taxonomy.
func (t *Transport) classify(ctx context.Context, path string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	switch {
	case fault.IsUnreachable(err):
		return err
	case fault.IsCancellation(err):
		// The client's own timeout, not the caller's context.
		return &TimeoutError{Endpoint: t.address, Path: path, Timeout: t.config.Timeout}
	case fault.IsPeerReset(err):
		return &transport.DisconnectedError{Endpoint: t.address, Err: err}
	default:
		return err
	}
}

// sessionCookie extracts the session ID and timeout. Devices send the
// timeout either as its own cookie or as an attribute of the session cookie.
func sessionCookie(cookies []*http.Cookie) (string, time.Duration) {
	var id string
	timeout := DefaultSessionTimeout
	for _, c := range cookies {
		switch c.Name {
		case SessionCookieName:
			id = c.Value
			for _, attr := range c.Unparsed {
				if v, ok := strings.CutPrefix(attr, TimeoutCookieName+"="); ok {
					timeout = parseTimeout(v, timeout)
				}
			}
		case TimeoutCookieName:
			timeout = parseTimeout(c.Value, timeout)
		}
	}
	return id, timeout
}

func parseTimeout(v string, fallback time.Duration) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}

func (t *Transport) debugLog(msg string, args ...any) {
	if t.config.Logger != nil {
		t.config.Logger.Debug(msg, args...)
	}
}

func (t *Transport) logEvent(e log.Event) {
	if t.config.ProtocolLogger == nil {
		return
	}
	e.Timestamp = time.Now()
	e.ConnectionID = t.SessionID()
	e.RemoteAddr = t.address
	e.DeviceID = t.config.DeviceID
	t.config.ProtocolLogger.Log(e)
}

func (t *Transport) logMessage(dir log.Direction, typ log.MessageType, module, method string, data json.RawMessage, rtt *time.Duration) {
	if t.config.ProtocolLogger == nil {
		return
	}
	msg := &log.MessageEvent{
		Type:      typ,
		Module:    module,
		Method:    method,
		RoundTrip: rtt,
	}
	if typ == log.MessageTypeRequest {
		if params, err := wire.DecodeEnvelope(data, module, method); err == nil {
			msg.Payload = log.PayloadOf(params)
		}
	} else {
		code := int(wire.ErrorCodeOf(data))
		msg.ErrorCode = &code
		msg.Payload = log.PayloadOf(data)
	}
	t.logEvent(log.Event{
		Direction: dir,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message:   msg,
	})
}

func (t *Transport) logState(from, to, reason string) {
	if t.config.ProtocolLogger == nil {
		return
	}
	t.logEvent(log.Event{
		Layer:    log.LayerTransport,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: from,
			NewState: to,
			Reason:   reason,
		},
	})
}
