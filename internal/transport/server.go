package transport

import (
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/tiagodeliberali/logstreamer/internal/protocol"
)

// Dispatcher handles one decoded action and returns the responses to
// write back, for every action except Quit and Invalid, which the
// connection loop below handles itself. Defining this interface here
// (instead of importing the broker package directly) keeps transport
// free of any dependency on broker, which in turn depends on
// transport.SendOneShot to dial peers.
type Dispatcher interface {
	Dispatch(action protocol.Action, consumerID string) []protocol.ResponseMessage
}

// Server is a TCP accept loop paired with a Dispatcher, shaped after
// the teacher's services/udp.Service lifecycle: Open starts a
// goroutine per accepted connection, Close stops accepting and waits
// for in-flight connections to finish.
type Server struct {
	addr       string
	dispatcher Dispatcher
	logger     *zap.Logger

	mu   sync.Mutex
	ln   net.Listener
	wg   sync.WaitGroup
	done chan struct{}

	// Err surfaces asynchronous accept-loop failures, mirroring
	// services/httpd.Service's err channel.
	Err chan error
}

// NewServer builds a Server bound to addr once Open is called.
func NewServer(addr string, dispatcher Dispatcher, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:       addr,
		dispatcher: dispatcher,
		logger:     logger,
		done:       make(chan struct{}),
		Err:        make(chan error, 1),
	}
}

// Open binds the listener and starts accepting connections in the
// background. It returns once the listener is bound, so callers can
// rely on Addr() immediately afterward.
func (s *Server) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.ln = ln

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listener address. Open must have succeeded.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			select {
			case s.Err <- err:
			default:
			}
			return
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(conn)
		}()
	}
}

// handleConn serves one connection until the peer sends Quit, closes
// the connection, or a fatal framing error occurs, matching the
// connection-loop contract described for the dispatcher: Quit writes
// one Empty and closes, Invalid writes one Empty and continues, and
// every other action's responses (substituting Empty when the
// dispatcher returns none) are pipelined back in one write.
func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	for {
		buf := make([]byte, 1024)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}

		msg, err := protocol.DecodeAction(buf[:n])
		if err != nil {
			s.logger.Debug("framing error, closing connection", zap.Error(err))
			return
		}

		switch msg.Action.(type) {
		case *protocol.Quit:
			s.write(conn, []protocol.ResponseMessage{protocol.NewEmptyResponse()})
			return
		case *protocol.Invalid:
			s.write(conn, []protocol.ResponseMessage{protocol.NewEmptyResponse()})
			continue
		}

		responses := s.dispatcher.Dispatch(msg.Action, msg.ConsumerID)
		if len(responses) == 0 {
			responses = []protocol.ResponseMessage{protocol.NewEmptyResponse()}
		}
		if !s.write(conn, responses) {
			return
		}
	}
}

func (s *Server) write(conn net.Conn, responses []protocol.ResponseMessage) bool {
	if _, err := conn.Write(protocol.EncodeResponses(responses)); err != nil {
		s.logger.Debug("write failed, closing connection", zap.Error(err))
		return false
	}
	return true
}

// Close stops accepting new connections and waits for in-flight
// connections to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()

	close(s.done)
	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.wg.Wait()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
