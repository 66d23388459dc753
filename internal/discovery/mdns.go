// Package discovery announces the syncstore server on the local network and
// lets clients find it when no address is configured.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
)

const (
	serviceName = "_syncstore._tcp"
	domain      = "local."
)

// ErrNotFound is returned when no server answered before the deadline.
var ErrNotFound = errors.New("discovery: no server found")

// Announcer advertises a server over mDNS.
type Announcer struct {
	server *zeroconf.Server
}

// Announce registers instance as a syncstore server listening on listenAddr.
func Announce(instance, listenAddr, version string) (*Announcer, error) {
	port, err := portOf(listenAddr)
	if err != nil {
		return nil, err
	}

	server, err := zeroconf.Register(instance, serviceName, domain, port, []string{
		"version=" + version,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register: %w", err)
	}
	return &Announcer{server: server}, nil
}

// Stop withdraws the announcement.
func (a *Announcer) Stop() {
	if a == nil {
		return
	}
	a.server.Shutdown()
}

// Browse waits until ctx is done for the first announced server and returns
// its address (host:port). IPv4 addresses are preferred.
func Browse(ctx context.Context) (string, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return "", fmt.Errorf("discovery: resolver: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	if err := resolver.Browse(ctx, serviceName, domain, entries); err != nil {
		return "", fmt.Errorf("discovery: browse: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return "", ErrNotFound
		case entry, ok := <-entries:
			if !ok {
				return "", ErrNotFound
			}
			if addr := addressOf(entry); addr != "" {
				return addr, nil
			}
		}
	}
}

func addressOf(entry *zeroconf.ServiceEntry) string {
	if entry == nil {
		return ""
	}
	port := strconv.Itoa(entry.Port)
	switch {
	case len(entry.AddrIPv4) > 0:
		return net.JoinHostPort(entry.AddrIPv4[0].String(), port)
	case len(entry.AddrIPv6) > 0:
		return net.JoinHostPort(entry.AddrIPv6[0].String(), port)
	}
	return ""
}

func portOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("discovery: invalid listen addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return 0, fmt.Errorf("discovery: invalid port %q", portStr)
	}
	return port, nil
}
