package base

import (
	"context"
	"encoding/json"
	"github.com/flowmesh-io/mcpproxy"
	"github.com/flowmesh-io/mcpproxy/transport"
	"sync/atomic"
	"time"
)

// Transport represents a Transport
type Transport struct {
	TripTimeout time.Duration
	pending     *transport.PendingRequests
	sendData    func(ctx context.Context, data []byte)
	session     *Session
}

func (s *Transport) Notify(ctx context.Context, notification *jsonrpc.Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	s.sendData(ctx, data)
	return nil
}

func (s *Transport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	request.Id = int(atomic.AddUint64(&s.session.RequestIdSeq, 1))
	roundTrip, err := s.pending.Add(request)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	s.sendData(ctx, data)
	return roundTrip.Wait(ctx, s.TripTimeout)
}

// NewTransport creates a new Transport
func NewTransport(pending *transport.PendingRequests, sendData func(ctx context.Context, data []byte), session *Session) *Transport {
	return &Transport{
		pending:     pending,
		sendData:    sendData,
		session:     session,
		TripTimeout: 5 * time.Minute,
	}
}
