package topology

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/specialistvlad/dspgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

const (
	// DefaultEvent is the socket.io event reports are emitted under.
	DefaultEvent = "topology"
	// DefaultTimeout bounds one publish, connection included.
	DefaultTimeout = 5 * time.Second
)

// Publisher emits reports to a socket.io server. Each Publish opens its own
// connection, so a server that is down only costs the publish in flight.
type Publisher struct {
	baseURL            string
	path               string
	Namespace          string
	Event              string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// NewPublisher creates a publisher for a URL such as
// "ws://localhost:3000/socket.io/". The namespace defaults to "/".
func NewPublisher(rawURL string) (*Publisher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("report URL %q needs a scheme and a host", rawURL)
	}
	return &Publisher{
		baseURL:   fmt.Sprintf("%s://%s", u.Scheme, u.Host),
		path:      u.Path,
		Namespace: "/",
		Event:     DefaultEvent,
		Timeout:   DefaultTimeout,
	}, nil
}

// Publish connects, emits the report and disconnects. It returns once the
// report was handed to the connection, or with an error if the connection
// failed or timed out.
func (p *Publisher) Publish(ctx context.Context, report *Report) error {
	logger := ctxlog.FromContext(ctx).With("url", p.baseURL+p.path, "namespace", p.Namespace, "event", p.Event)
	logger.Debug("Publish: Starting topology publish.", "items", len(report.Items))

	opCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	opts := socket.DefaultOptions()
	if p.path != "" {
		opts.SetPath(p.path)
	}
	if p.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(p.baseURL, opts)
	io := manager.Socket(p.Namespace, opts)
	defer func() {
		logger.Debug("Publish: Disconnecting socket client.")
		io.Disconnect()
	}()

	done := make(chan error, 1)
	io.On(types.EventName("connect"), func(...any) {
		logger.Debug("Publish: Connected.", "sid", io.Id())
		io.Emit(p.Event, report)
		select {
		case done <- nil:
		default:
		}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		err := errors.New("connection refused")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case done <- err:
		default:
		}
	})

	io.Connect()

	select {
	case <-opCtx.Done():
		return fmt.Errorf("timed out publishing topology to %s: %w", p.baseURL, opCtx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to connect to %s: %w", p.baseURL, err)
		}
		logger.Debug("Publish: Topology emitted.")
		return nil
	}
}
