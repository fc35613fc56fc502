package rosbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/gorilla/websocket"
	"go.viam.com/test"
)

// testBridge is a loopback rosbridge endpoint: published messages are
// relayed to whoever subscribed to the topic on the same connection, and
// service calls are answered by a configurable handler.
type testBridge struct {
	t       *testing.T
	server  *httptest.Server
	service func(service string, args json.RawMessage) (json.RawMessage, bool)
}

func newTestBridge(t *testing.T) *testBridge {
	t.Helper()
	b := &testBridge{t: t}
	upgrader := websocket.Upgrader{}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		subscribed := map[string]bool{}
		for {
			var f frame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
			switch f.Op {
			case opSubscribe:
				subscribed[f.Topic] = true
			case opPublish:
				if subscribed[f.Topic] {
					if err := ws.WriteJSON(f); err != nil {
						return
					}
				}
			case opCallService:
				values, ok := json.RawMessage(`{}`), true
				if b.service != nil {
					values, ok = b.service(f.Service, f.Args)
				}
				resp := frame{Op: opServiceResponse, ID: f.ID, Service: f.Service, Values: values, Result: &ok}
				if err := ws.WriteJSON(resp); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *testBridge) address() string {
	return "ws" + strings.TrimPrefix(b.server.URL, "http")
}

func TestDialFailure(t *testing.T) {
	logger := golog.NewTestLogger(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := Dial(ctx, "ws://127.0.0.1:1/", logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "dialing rosbridge")
}

func TestPublishSubscribeRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bridge := newTestBridge(t)

	conn, err := Dial(context.Background(), bridge.address(), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, conn.Close(), test.ShouldBeNil)
	}()

	received := make(chan json.RawMessage, 1)
	test.That(t, conn.Subscribe("chatter", "std_msgs/String", func(msg json.RawMessage) {
		received <- msg
	}), test.ShouldBeNil)
	test.That(t, conn.Advertise("chatter", "std_msgs/String"), test.ShouldBeNil)
	test.That(t, conn.Publish("chatter", map[string]string{"data": "hello"}), test.ShouldBeNil)

	select {
	case msg := <-received:
		var decoded map[string]string
		test.That(t, json.Unmarshal(msg, &decoded), test.ShouldBeNil)
		test.That(t, decoded["data"], test.ShouldEqual, "hello")
	case <-time.After(5 * time.Second):
		t.Fatal("never received the looped-back message")
	}
}

func TestCallService(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bridge := newTestBridge(t)
	bridge.service = func(service string, args json.RawMessage) (json.RawMessage, bool) {
		test.That(t, service, test.ShouldEqual, "add_two_ints")
		var req struct {
			A int `json:"a"`
			B int `json:"b"`
		}
		test.That(t, json.Unmarshal(args, &req), test.ShouldBeNil)
		out, err := json.Marshal(map[string]int{"sum": req.A + req.B})
		test.That(t, err, test.ShouldBeNil)
		return out, true
	}

	conn, err := Dial(context.Background(), bridge.address(), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, conn.Close(), test.ShouldBeNil)
	}()

	var resp struct {
		Sum int `json:"sum"`
	}
	err = conn.CallService(context.Background(), "add_two_ints", map[string]int{"a": 2, "b": 3}, &resp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, resp.Sum, test.ShouldEqual, 5)
}

func TestCallServiceFailureResult(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bridge := newTestBridge(t)
	bridge.service = func(service string, args json.RawMessage) (json.RawMessage, bool) {
		return json.RawMessage(`{}`), false
	}

	conn, err := Dial(context.Background(), bridge.address(), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, conn.Close(), test.ShouldBeNil)
	}()

	err = conn.CallService(context.Background(), "broken", nil, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "reported failure")
}

func TestCallServiceContextCancel(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bridge := newTestBridge(t)
	block := make(chan struct{})
	bridge.service = func(service string, args json.RawMessage) (json.RawMessage, bool) {
		<-block
		return json.RawMessage(`{}`), true
	}
	defer close(block)

	conn, err := Dial(context.Background(), bridge.address(), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, conn.Close(), test.ShouldBeNil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err = conn.CallService(ctx, "slow", nil, nil)
	test.That(t, err, test.ShouldBeError, context.DeadlineExceeded)
}

func TestCallServiceAfterServerGone(t *testing.T) {
	logger := golog.NewTestLogger(t)
	bridge := newTestBridge(t)

	conn, err := Dial(context.Background(), bridge.address(), logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		conn.Close()
	}()

	bridge.server.CloseClientConnections()
	// The read pump notices the drop and fails the call either up front or
	// by closing its pending channel.
	deadline := time.Now().Add(5 * time.Second)
	for {
		err = conn.CallService(context.Background(), "anything", nil, nil)
		if err == errConnClosed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("call never failed with a closed-connection error")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
