// Package sender implements the sender transport. It owns a
// push-style socket connection to the downstream processor and a
// drainer goroutine that pulls RawDataPoints from the collector
// channel, encodes them via internal/messaging, and writes framed
// messages to the socket.
package sender

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.nanomsg.org/mangos/v3"
	"go.nanomsg.org/mangos/v3/protocol/push"

	_ "go.nanomsg.org/mangos/v3/transport/ipc"
	_ "go.nanomsg.org/mangos/v3/transport/tcp"

	"github.com/dmagro/dms-agent/internal/collector"
	"github.com/dmagro/dms-agent/internal/messaging"
)

// supportedSchemes names the transport schemes Dial accepts: ipc and
// tcp are registered above via blank import for production use;
// inproc is included for in-process transport used by this package's
// own tests. Any other scheme is a ConfigurationError before a dial
// is ever attempted.
var supportedSchemes = map[string]bool{
	"ipc":    true,
	"tcp":    true,
	"inproc": true,
}

// Topic is the wire topic stamped on every framed RawDataPoint. The
// core doesn't implement pub/sub fan-out, so a single fixed empty
// topic is used; left as a named constant in case that changes.
const Topic = ""

// WireVersion is the MessageHeader.Version this sender stamps.
const WireVersion uint8 = 0

// ConnectionError reports a construction-time failure to establish the
// push socket (refused, unreachable, address-in-use, timed-out,
// address-family-unsupported). It is fatal at startup; the core does
// not retry a failed initial connect.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("sender: connect to %s: %s", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConfigurationError reports a malformed processor URL or an
// unsupported transport scheme.
type ConfigurationError struct {
	URL string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("sender: configuration: %s: %s", e.URL, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TransportError reports a send-time socket failure. It is logged and
// the data point is dropped; the drainer keeps running.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sender: transport: %s", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Sender owns the push socket and the drainer goroutine draining a
// collector.Channel.
type Sender struct {
	sock     mangos.Socket
	ch       *collector.Channel
	log      zerolog.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// Dial constructs a push socket connected to rawURL and spawns the
// drainer goroutine reading from ch. Construction errors are
// classified: a malformed URL or an unsupported transport scheme is a
// ConfigurationError; a refused/unreachable/timed-out/in-use dial
// against a supported scheme is a ConnectionError.
func Dial(rawURL string, ch *collector.Channel, log zerolog.Logger) (*Sender, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ConfigurationError{URL: rawURL, Err: err}
	}
	if !supportedSchemes[strings.ToLower(parsed.Scheme)] {
		return nil, &ConfigurationError{URL: rawURL, Err: fmt.Errorf("unsupported transport scheme %q", parsed.Scheme)}
	}

	sock, err := push.NewSocket()
	if err != nil {
		return nil, &ConfigurationError{URL: rawURL, Err: err}
	}

	if err := sock.Dial(rawURL); err != nil {
		return nil, &ConnectionError{URL: rawURL, Err: err}
	}

	s := &Sender{
		sock: sock,
		ch:   ch,
		log:  log,
		done: make(chan struct{}),
	}
	go s.drain()
	return s, nil
}

// drain reads RawDataPoints until ch is closed, encoding and writing
// each as a framed message. A TransportError on a single write is
// logged and that point is dropped; the loop continues — liveness
// over durability.
func (s *Sender) drain() {
	defer close(s.done)

	for point := range s.ch.Points() {
		frame, err := messaging.FrameRawDataPoint(point, Topic, WireVersion)
		if err != nil {
			s.log.Warn().Err(err).Str("location", point.Location).Str("path", point.Path).Msg("failed to encode measurement; dropping")
			continue
		}

		if err := s.sock.Send(frame); err != nil {
			terr := &TransportError{Err: err}
			s.log.Warn().Err(terr).Str("location", point.Location).Str("path", point.Path).Msg("failed to send measurement; dropping")
			continue
		}
	}
}

// Stop closes the underlying socket. The caller must ensure ch has
// already been closed (or will never receive further writes) before
// calling Stop; Join then waits for the drainer to observe the closed
// channel and exit. Idempotent.
func (s *Sender) Stop() {
	s.stopOnce.Do(func() {
		s.sock.Close()
	})
}

// Join blocks until the drainer goroutine has exited, which happens
// once the collector channel it reads from is closed.
func (s *Sender) Join() {
	<-s.done
}
