package gateway

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/devpokerapp/devpoker-services/internal/apperror"
)

// Request is the multiplexed client envelope.
type Request struct {
	Service       string          `json:"service"`
	Method        string          `json:"method"`
	Data          json.RawMessage `json:"data"`
	CorrelationID string          `json:"correlationId,omitempty"`
}

// Response mirrors the request back with either a result or a domain
// error. Exactly one response is produced per request.
type Response struct {
	Success       bool            `json:"success"`
	Service       string          `json:"service"`
	Method        string          `json:"method"`
	Result        any             `json:"result,omitempty"`
	Error         *apperror.Error `json:"error,omitempty"`
	CorrelationID string          `json:"correlationId,omitempty"`
}

// HandlerFunc executes one backend operation on behalf of a
// connection. Payload decoding failures surface as validation errors.
type HandlerFunc func(ctx context.Context, connectionID string, data json.RawMessage) (any, error)

// Dispatcher routes request envelopes to registered operations. The
// route table is closed after startup wiring, so every dispatchable
// name is backed by a real handler.
type Dispatcher struct {
	routes map[string]map[string]HandlerFunc
	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		routes: make(map[string]map[string]HandlerFunc),
		logger: logger,
	}
}

// Register binds service.method to a handler. Duplicate registration
// is a programming error and panics during startup.
func (d *Dispatcher) Register(service, method string, handler HandlerFunc) {
	if d.routes[service] == nil {
		d.routes[service] = make(map[string]HandlerFunc)
	}
	if _, exists := d.routes[service][method]; exists {
		panic("gateway: duplicate operation " + service + "." + method)
	}
	d.routes[service][method] = handler
}

// Dispatch runs the named operation and converts any error into the
// response envelope. Domain errors never fault the transport.
func (d *Dispatcher) Dispatch(ctx context.Context, connectionID string, req Request) Response {
	resp := Response{
		Service:       req.Service,
		Method:        req.Method,
		CorrelationID: req.CorrelationID,
	}

	methods, ok := d.routes[req.Service]
	if !ok {
		resp.Error = apperror.Validation("unknown service %q", req.Service)
		return resp
	}
	handler, ok := methods[req.Method]
	if !ok {
		resp.Error = apperror.Validation("unknown method %q on service %q", req.Method, req.Service)
		return resp
	}

	result, err := handler(ctx, connectionID, req.Data)
	if err != nil {
		appErr := apperror.From(err)
		if appErr == nil {
			d.logger.Error("operation failed",
				zap.String("service", req.Service),
				zap.String("method", req.Method),
				zap.String("connection_id", connectionID),
				zap.Error(err))
			appErr = apperror.Internal("operation failed")
		}
		resp.Error = appErr
		return resp
	}

	resp.Success = true
	resp.Result = result
	return resp
}
