package discovery

import (
	"context"
	"fmt"
	"net"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"
)

// MDNSResult is one service instance found by Browse.
type MDNSResult struct {
	Instance  string   `json:"instance"`
	Service   string   `json:"service"`
	Domain    string   `json:"domain"`
	HostName  string   `json:"hostName"`
	Addresses []string `json:"addresses"`
	Port      int      `json:"port"`
	Txt       []string `json:"txt,omitempty"`
}

// Advertise registers an mDNS service instance. The returned func
// withdraws it.
func Advertise(instance, service, domain string, port int, txt []string) (func(), error) {
	server, err := zeroconf.Register(instance, service, domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	log.Info().Str("instance", instance).Str("service", service).Str("domain", domain).Int("port", port).Msg("mdns: advertised")
	return server.Shutdown, nil
}

// Browse collects instances of service until ctx is done.
func Browse(ctx context.Context, service, domain string) ([]MDNSResult, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	if err := resolver.Browse(ctx, service, domain, entries); err != nil {
		return nil, fmt.Errorf("mdns browse %s: %w", service, err)
	}

	results := []MDNSResult{}
	for {
		select {
		case <-ctx.Done():
			return results, nil
		case entry, ok := <-entries:
			if !ok {
				return results, nil
			}
			if entry == nil {
				continue
			}
			results = append(results, fromEntry(entry))
		}
	}
}

func fromEntry(e *zeroconf.ServiceEntry) MDNSResult {
	addrs := make([]string, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
	for _, ips := range [][]net.IP{e.AddrIPv4, e.AddrIPv6} {
		for _, ip := range ips {
			addrs = append(addrs, ip.String())
		}
	}
	return MDNSResult{
		Instance:  e.Instance,
		Service:   e.Service,
		Domain:    e.Domain,
		HostName:  e.HostName,
		Addresses: addrs,
		Port:      e.Port,
		Txt:       e.Text,
	}
}
