// Package discovery advertises the daemon's HTTP API over DNS-SD and finds
// advertised daemons on the local network.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/jmylchreest/chrolisd/internal/config"
)

// TXT record keys published with the service.
const (
	txtVersion = "version"
	txtSerial  = "serial"
	txtAPI     = "api"

	apiPath = "/api/v1"
)

// Info is what the daemon advertises about itself.
type Info struct {
	Instance string
	Port     int
	Version  string
	Serial   string
}

// Advertiser keeps a DNS-SD registration alive until Shutdown.
type Advertiser struct {
	logger *slog.Logger
	server *zeroconf.Server
}

// Advertise registers the daemon under config.ServiceType. An empty
// instance name uses the host name.
func Advertise(logger *slog.Logger, info Info) (*Advertiser, error) {
	if info.Port <= 0 {
		return nil, fmt.Errorf("discovery: invalid port %d", info.Port)
	}
	if info.Instance == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = "chrolisd"
		}
		info.Instance = "chrolisd on " + host
	}

	server, err := zeroconf.Register(info.Instance, config.ServiceType, config.ServiceDomain, info.Port, txtRecords(info), nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register %s: %w", config.ServiceType, err)
	}
	logger.Info("discovery: advertising", "instance", info.Instance, "service", config.ServiceType, "port", info.Port)
	return &Advertiser{logger: logger, server: server}, nil
}

// Shutdown withdraws the registration.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.logger.Info("discovery: advertisement withdrawn")
}

func txtRecords(info Info) []string {
	txt := []string{txtAPI + "=" + apiPath}
	if info.Version != "" {
		txt = append(txt, txtVersion+"="+info.Version)
	}
	if info.Serial != "" {
		txt = append(txt, txtSerial+"="+info.Serial)
	}
	return txt
}

// Daemon is a daemon found by Browse.
type Daemon struct {
	Instance string `json:"instance"`
	Host     string `json:"host"`
	Addr     string `json:"addr"`
	Port     int    `json:"port"`
	Version  string `json:"version,omitempty"`
	Serial   string `json:"serial,omitempty"`
}

// URL is the daemon's API base URL.
func (d Daemon) URL() string {
	return "http://" + net.JoinHostPort(d.Addr, strconv.Itoa(d.Port))
}

// Browse collects daemons answering within timeout, sorted by instance.
func Browse(ctx context.Context, logger *slog.Logger, timeout time.Duration) ([]Daemon, error) {
	if timeout <= 0 {
		timeout = config.DefaultDiscoveryTimeout
	}
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 10)
	found := make(map[string]Daemon)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for entry := range entries {
			d, ok := daemonFromEntry(entry)
			if !ok {
				logger.Debug("discovery: skipping invalid entry", "entry", entry)
				continue
			}
			found[d.Instance] = d
		}
	}()

	if err := resolver.Browse(ctx, config.ServiceType, config.ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("discovery: browse: %w", err)
	}
	<-ctx.Done()
	<-done

	out := make([]Daemon, 0, len(found))
	for _, d := range found {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out, nil
}

// daemonFromEntry validates an answer. Entries without an address, a port
// or the api TXT record are not chrolisd instances.
func daemonFromEntry(entry *zeroconf.ServiceEntry) (Daemon, bool) {
	if entry == nil || entry.Port == 0 {
		return Daemon{}, false
	}
	txt := parseTXT(entry.Text)
	if txt[txtAPI] != apiPath {
		return Daemon{}, false
	}

	var addr string
	switch {
	case len(entry.AddrIPv4) > 0:
		addr = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		addr = entry.AddrIPv6[0].String()
	default:
		return Daemon{}, false
	}

	return Daemon{
		Instance: entry.Instance,
		Host:     strings.TrimSuffix(entry.HostName, "."),
		Addr:     addr,
		Port:     entry.Port,
		Version:  txt[txtVersion],
		Serial:   txt[txtSerial],
	}, true
}

func parseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, r := range records {
		k, v, _ := strings.Cut(r, "=")
		out[strings.ToLower(k)] = v
	}
	return out
}
