package announce

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/idaohang/genesis/internal/station"
)

// Admitter is the capability the listener needs from the supervisor:
// hand a decoded station to admission (spec.md §4.B: "hand to
// Supervisor for admission").
type Admitter interface {
	Admit(st station.Station)
}

// FatalReporter is notified when the listener's socket fails for a
// reason other than a truncated read, which spec.md §4.B says must
// cause the supervisor to begin shutdown.
type FatalReporter interface {
	Fatal(err error)
}

// Listener binds a UDP endpoint, optionally joining a multicast
// group, and decodes announcement packets (spec.md §4.B).
type Listener struct {
	conn *net.UDPConn
	log  *zap.Logger
}

// Listen binds to addr:port. If addr is an IPv4 multicast address,
// the socket joins that group on every interface; an IPv6 multicast
// address is bound but its group is not joined. Otherwise it listens
// on the wildcard address for addr's family. SO_REUSEADDR is set
// before bind, per spec.md §4.B.
func Listen(addr string, port int, log *zap.Logger) (*Listener, error) {
	ip := net.ParseIP(addr)

	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return sockErr
		},
	}

	listenAddr := addr
	if ip == nil || !ip.IsMulticast() {
		listenAddr = "0.0.0.0"
		if ip != nil && ip.To4() == nil {
			listenAddr = "::"
		}
	}

	pc, err := lc.ListenPacket(context.Background(), "udp", net.JoinHostPort(listenAddr, fmt.Sprint(port)))
	if err != nil {
		return nil, err
	}
	udpConn := pc.(*net.UDPConn)

	if ip != nil && ip.IsMulticast() {
		p := ipv4.NewPacketConn(udpConn)
		ifaces, ierr := net.Interfaces()
		if ierr == nil {
			for _, iface := range ifaces {
				_ = p.JoinGroup(&iface, &net.UDPAddr{IP: ip})
			}
		}
	}

	return &Listener{conn: udpConn, log: log}, nil
}

// Serve reads datagrams until the connection is closed or an error
// other than a short read occurs, dispatching each decoded station to
// admitter. It reports fatal transport errors to fatal (spec.md §4.B).
func (l *Listener) Serve(admitter Admitter, fatal FatalReporter) {
	buf := make([]byte, 1500)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			fatal.Fatal(fmt.Errorf("announce: socket error: %w", err))
			return
		}
		if n != PacketSize {
			l.log.Warn("dropping malformed announcement", zap.Int("length", n))
			continue
		}
		st, derr := DecodePacket(buf[:n], from.IP.String())
		if derr != nil {
			l.log.Warn("dropping unparseable announcement", zap.Error(derr))
			continue
		}
		if st.Type == station.Unknown {
			l.log.Debug("dropping announcement with unknown station type", zap.String("from", from.String()))
			continue
		}
		admitter.Admit(st)
	}
}

// Addr returns the socket's local address, mainly useful in tests that
// bind an ephemeral port.
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Close shuts down the listening socket.
func (l *Listener) Close() error {
	return l.conn.Close()
}
