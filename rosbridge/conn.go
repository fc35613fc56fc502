// Package rosbridge implements a minimal client for a rosbridge-style
// websocket endpoint: topic publish/subscribe plus request/response
// service calls, all as JSON frames over one connection.
package rosbridge

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// frame is the wire envelope for every rosbridge operation.
type frame struct {
	Op      string          `json:"op"`
	ID      string          `json:"id,omitempty"`
	Topic   string          `json:"topic,omitempty"`
	Type    string          `json:"type,omitempty"`
	Service string          `json:"service,omitempty"`
	Msg     json.RawMessage `json:"msg,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
	Values  json.RawMessage `json:"values,omitempty"`
	Result  *bool           `json:"result,omitempty"`
}

const (
	opAdvertise       = "advertise"
	opPublish         = "publish"
	opSubscribe       = "subscribe"
	opCallService     = "call_service"
	opServiceResponse = "service_response"
)

var errConnClosed = errors.New("rosbridge connection closed")

// Conn is a client connection to a rosbridge endpoint. All methods are
// safe for concurrent use; one background read pump dispatches incoming
// frames to subscription callbacks and pending service calls.
type Conn struct {
	logger golog.Logger
	ws     *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	subs    map[string]func(msg json.RawMessage)
	pending map[string]chan frame
	closed  bool

	activeBackgroundWorkers sync.WaitGroup
}

// Dial connects to a rosbridge endpoint, e.g. "ws://localhost:9090".
func Dial(ctx context.Context, address string, logger golog.Logger) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, address, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing rosbridge at %q", address)
	}
	if resp != nil && resp.Body != nil {
		goutils.UncheckedErrorFunc(resp.Body.Close)
	}
	conn := &Conn{
		logger:  logger,
		ws:      ws,
		subs:    map[string]func(json.RawMessage){},
		pending: map[string]chan frame{},
	}
	conn.activeBackgroundWorkers.Add(1)
	goutils.PanicCapturingGo(func() {
		defer conn.activeBackgroundWorkers.Done()
		conn.readPump()
	})
	return conn, nil
}

func (c *Conn) readPump() {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			break
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Debugw("dropping undecodable frame", "error", err)
			continue
		}
		switch f.Op {
		case opPublish:
			c.mu.Lock()
			cb := c.subs[f.Topic]
			c.mu.Unlock()
			if cb != nil {
				cb(f.Msg)
			}
		case opServiceResponse:
			c.mu.Lock()
			ch := c.pending[f.ID]
			delete(c.pending, f.ID)
			c.mu.Unlock()
			if ch != nil {
				ch <- f
			}
		default:
			c.logger.Debugw("ignoring frame", "op", f.Op)
		}
	}

	// Fail anything still waiting for a response.
	c.mu.Lock()
	c.closed = true
	for id, ch := range c.pending {
		delete(c.pending, id)
		close(ch)
	}
	c.mu.Unlock()
}

func (c *Conn) writeFrame(f frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(f)
}

// Subscribe registers a callback for a topic and asks the bridge to start
// delivering it. The callback runs on the read pump; it must not block.
func (c *Conn) Subscribe(topic, msgType string, cb func(msg json.RawMessage)) error {
	c.mu.Lock()
	c.subs[topic] = cb
	c.mu.Unlock()
	return c.writeFrame(frame{Op: opSubscribe, Topic: topic, Type: msgType})
}

// Advertise declares a topic this connection will publish to.
func (c *Conn) Advertise(topic, msgType string) error {
	return c.writeFrame(frame{Op: opAdvertise, Topic: topic, Type: msgType})
}

// Publish sends one message on an advertised topic.
func (c *Conn) Publish(topic string, msg interface{}) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrapf(err, "marshaling message for %q", topic)
	}
	return c.writeFrame(frame{Op: opPublish, Topic: topic, Msg: raw})
}

// CallService performs one synchronous service call, unmarshaling the
// response values into resp.
func (c *Conn) CallService(ctx context.Context, service string, args, resp interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return errors.Wrapf(err, "marshaling args for %q", service)
	}

	id := uuid.NewString()
	ch := make(chan frame, 1)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errConnClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.writeFrame(frame{Op: opCallService, ID: id, Service: service, Args: raw}); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return errors.Wrapf(err, "calling %q", service)
	}

	select {
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return ctx.Err()
	case f, ok := <-ch:
		if !ok {
			return errConnClosed
		}
		if f.Result != nil && !*f.Result {
			return errors.Errorf("service %q reported failure", service)
		}
		if resp == nil {
			return nil
		}
		return errors.Wrapf(json.Unmarshal(f.Values, resp), "unmarshaling %q response", service)
	}
}

// Close shuts the connection down and waits for the read pump to exit.
func (c *Conn) Close() error {
	err := c.ws.Close()
	c.activeBackgroundWorkers.Wait()
	return err
}
