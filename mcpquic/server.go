package mcpquic

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/quic-go/quic-go"

	"github.com/hazyhaar/seamlis/idgen"
	"github.com/hazyhaar/seamlis/kit"
)

// Listener serves the seamlis MCP tools over QUIC. Every accepted
// connection is one MCP session of the shared server, carried on the first
// bidirectional stream after the magic preamble.
type Listener struct {
	ql     *quic.Listener
	server *mcp.Server
	logger *slog.Logger
	newID  idgen.Generator
}

// NewListener binds addr. tlsCfg must offer ALPNProtocolMCP.
func NewListener(addr string, tlsCfg *tls.Config, srv *mcp.Server, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ql, err := quic.ListenAddr(addr, tlsCfg, ProductionQUICConfig())
	if err != nil {
		return nil, err
	}
	logger.Info("mcpquic: listener ready", "addr", ql.Addr().String())
	return &Listener{
		ql:     ql,
		server: srv,
		logger: logger,
		newID:  idgen.Prefixed("quic_", idgen.UUIDv7()),
	}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ql.Addr() }

// Close stops accepting connections.
func (l *Listener) Close() error { return l.ql.Close() }

// Serve accepts connections until ctx is done. Each session runs on its own
// goroutine and inherits ctx.
func (l *Listener) Serve(ctx context.Context) error {
	for {
		conn, err := l.ql.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.logger.Error("mcpquic: accept", "error", err)
			continue
		}
		if alpn := conn.ConnectionState().TLS.NegotiatedProtocol; alpn != ALPNProtocolMCP {
			l.logger.Warn("mcpquic: rejected connection", "remote", conn.RemoteAddr().String(), "alpn", alpn)
			conn.CloseWithError(ConnErrorUnsupportedALPN, "unsupported ALPN: "+alpn)
			continue
		}
		go l.serveSession(ctx, conn)
	}
}

func (l *Listener) serveSession(ctx context.Context, conn *quic.Conn) {
	remote := conn.RemoteAddr().String()

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		l.logger.Error("mcpquic: accept stream", "remote", remote, "error", err)
		conn.CloseWithError(ConnErrorProtocolViolation, "stream accept failed")
		return
	}
	if err := ValidateMagicBytes(stream); err != nil {
		l.logger.Warn("mcpquic: bad preamble", "remote", remote, "error", err)
		stream.CancelRead(StreamErrorProtocolConfusion)
		stream.CancelWrite(StreamErrorProtocolConfusion)
		conn.CloseWithError(ConnErrorProtocolViolation, "invalid magic bytes")
		return
	}

	id := l.newID()
	log := l.logger.With("session", id, "remote", remote)
	log.Info("mcpquic: session open")

	ctx = kit.WithSessionID(kit.WithTransport(ctx, "mcp_quic"), id)
	ss, err := l.server.Connect(ctx, &streamTransport{stream: stream, id: id}, nil)
	if err != nil {
		log.Error("mcpquic: connect", "error", err)
		stream.Close()
		return
	}
	if err := ss.Wait(); err != nil {
		log.Debug("mcpquic: session wait", "error", err)
	}
	log.Info("mcpquic: session closed")
}

// streamTransport runs the SDK's newline-delimited JSON-RPC framing over a
// QUIC stream. Closing the connection closes only the send side; the peer
// closes the other.
type streamTransport struct {
	stream *quic.Stream
	id     string
}

func (t *streamTransport) Connect(ctx context.Context) (mcp.Connection, error) {
	conn, err := (&mcp.IOTransport{Reader: io.NopCloser(t.stream), Writer: t.stream}).Connect(ctx)
	if err != nil {
		return nil, err
	}
	return namedConn{Connection: conn, id: t.id}, nil
}

// namedConn gives the stream connection its listener-assigned session ID.
type namedConn struct {
	mcp.Connection
	id string
}

func (c namedConn) SessionID() string { return c.id }
