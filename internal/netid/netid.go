// Package netid resolves the address the bridge advertises to devices on the LAN.
package netid

import (
	"context"
	"fmt"
	"net"

	"github.com/shirou/gopsutil/v4/host"
	"github.com/wlynxg/anet"
)

// Loopback is returned when no routable IPv4 address exists.
const Loopback = "127.0.0.1"

// Iface is one enumerated network interface with its addresses.
type Iface struct {
	Name  string
	Flags net.Flags
	Addrs []net.Addr
}

// Source enumerates interfaces. Order is whatever the OS reports.
type Source interface {
	Interfaces() ([]Iface, error)
}

// SystemSource enumerates the host interfaces through anet, which also
// works on Android where net.Interfaces is restricted.
type SystemSource struct{}

func (SystemSource) Interfaces() ([]Iface, error) {
	ifs, err := anet.Interfaces()
	if err != nil {
		return nil, err
	}
	out := make([]Iface, 0, len(ifs))
	for i := range ifs {
		addrs, err := anet.InterfaceAddrsByInterface(&ifs[i])
		if err != nil {
			continue
		}
		out = append(out, Iface{Name: ifs[i].Name, Flags: ifs[i].Flags, Addrs: addrs})
	}
	return out, nil
}

// LocalIPv4 returns the first non-loopback IPv4 address found on an up
// interface, or 127.0.0.1 when there is none or enumeration fails.
func LocalIPv4(src Source) string {
	if src == nil {
		src = SystemSource{}
	}
	ifs, err := src.Interfaces()
	if err != nil {
		return Loopback
	}
	for _, iface := range ifs {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		for _, a := range iface.Addrs {
			if ip := ipv4(a); ip != nil && !ip.IsLoopback() {
				return ip.String()
			}
		}
	}
	return Loopback
}

func ipv4(a net.Addr) net.IP {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	default:
		return nil
	}
	return ip.To4()
}

// URL formats the advertised websocket address.
func URL(ip string, port int) string {
	return fmt.Sprintf("ws://%s", net.JoinHostPort(ip, fmt.Sprint(port)))
}

// Host describes the machine for operator display.
type Host struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Platform string `json:"platform"`
	Version  string `json:"platformVersion"`
	Arch     string `json:"arch"`
}

// HostInfo reads basic host facts.
func HostInfo(ctx context.Context) (Host, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return Host{}, fmt.Errorf("host info: %w", err)
	}
	return Host{
		Hostname: info.Hostname,
		OS:       info.OS,
		Platform: info.Platform,
		Version:  info.PlatformVersion,
		Arch:     info.KernelArch,
	}, nil
}
