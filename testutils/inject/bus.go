// Package inject provides function-field fakes for testing against the
// middleware bus.
package inject

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Bus is a fake middleware bus where each method can be injected.
type Bus struct {
	SubscribeFunc   func(topic, msgType string, cb func(msg json.RawMessage)) error
	AdvertiseFunc   func(topic, msgType string) error
	PublishFunc     func(topic string, msg interface{}) error
	CallServiceFunc func(ctx context.Context, service string, args, resp interface{}) error
}

// Subscribe calls the injected SubscribeFunc or succeeds as a no-op.
func (b *Bus) Subscribe(topic, msgType string, cb func(msg json.RawMessage)) error {
	if b.SubscribeFunc == nil {
		return nil
	}
	return b.SubscribeFunc(topic, msgType, cb)
}

// Advertise calls the injected AdvertiseFunc or succeeds as a no-op.
func (b *Bus) Advertise(topic, msgType string) error {
	if b.AdvertiseFunc == nil {
		return nil
	}
	return b.AdvertiseFunc(topic, msgType)
}

// Publish calls the injected PublishFunc or succeeds as a no-op.
func (b *Bus) Publish(topic string, msg interface{}) error {
	if b.PublishFunc == nil {
		return nil
	}
	return b.PublishFunc(topic, msg)
}

// CallService calls the injected CallServiceFunc or errors.
func (b *Bus) CallService(ctx context.Context, service string, args, resp interface{}) error {
	if b.CallServiceFunc == nil {
		return errors.New("CallService unimplemented")
	}
	return b.CallServiceFunc(ctx, service, args, resp)
}
