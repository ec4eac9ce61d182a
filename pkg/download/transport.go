package download

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// ErrForbiddenAddress is returned when a download resolves to a host the
// server must not reach, such as loopback or private networks.
var ErrForbiddenAddress = errors.New("download address not allowed")

// NewTransport returns the transport used for downloads. Unless
// cfg.AllowPrivateNetworks is set, connections to loopback, private,
// link-local and unspecified addresses are refused at dial time, which
// also covers redirects and DNS names resolving to such addresses.
func NewTransport(cfg Config) http.RoundTripper {
	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.AllowPrivateNetworks {
		return base
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   refusePrivateAddress,
	}
	base.DialContext = dialer.DialContext
	// A proxy would dial on our behalf and bypass the address check.
	base.Proxy = nil
	return base
}

func refusePrivateAddress(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("split %q: %w", address, err)
	}

	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("parse %q: %w", host, err)
	}
	ip = ip.Unmap()

	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() {
		return fmt.Errorf("%w: %s", ErrForbiddenAddress, ip)
	}
	return nil
}
