package device

import (
	"context"
	"github.com/jypelle/vekimon/internal/srv/config"
	"github.com/jypelle/vekimon/internal/srv/event"
	"github.com/sirupsen/logrus"
	"net"
	"sync"
	"time"
)

const subscriberBuffer = 4

// Network publishes a ConnectivityEvent each time an interface acquires a
// usable IPv4 address.
type Network struct {
	param          config.NetworkParam
	simulationMode bool

	lock        sync.Mutex
	subscribers []chan event.ConnectivityEvent
	known       map[string]bool
}

func NewNetwork(param config.NetworkParam, simulationMode bool) *Network {
	return &Network{
		param:          param,
		simulationMode: simulationMode,
		known:          make(map[string]bool),
	}
}

// Subscribe returns a channel receiving every later connectivity event.
// A subscriber that does not keep up loses events.
func (n *Network) Subscribe() <-chan event.ConnectivityEvent {
	n.lock.Lock()
	defer n.lock.Unlock()
	ch := make(chan event.ConnectivityEvent, subscriberBuffer)
	n.subscribers = append(n.subscribers, ch)
	return ch
}

// Run watches addresses until ctx is done. Addresses present at start are published too.
func (n *Network) Run(ctx context.Context) error {
	logrus.Infof("Start network device")
	defer logrus.Infof("Stop network device")

	if n.simulationMode {
		return n.poll(ctx)
	}
	return n.watch(ctx)
}

func (n *Network) poll(ctx context.Context) error {
	ticker := time.NewTicker(n.param.PollInterval)
	defer ticker.Stop()

	for {
		n.scan()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// scan publishes new addresses and forgets vanished ones.
func (n *Network) scan() {
	ifaces, err := net.Interfaces()
	if err != nil {
		logrus.Warnf("Unable to list network interfaces: %v", err)
		return
	}

	current := make(map[string]bool)
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || !n.matches(iface.Name) {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			logrus.Debugf("Unable to list addresses of %s: %v", iface.Name, err)
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || !usableAddress(ipNet.IP) {
				continue
			}
			current[addressKey(iface.Name, ipNet.IP)] = true
			n.publish(iface.Name, ipNet.IP)
		}
	}

	n.lock.Lock()
	defer n.lock.Unlock()
	for key := range n.known {
		if !current[key] {
			delete(n.known, key)
		}
	}
}

func (n *Network) matches(ifName string) bool {
	return n.param.Interface == "" || n.param.Interface == ifName
}

// publish sends the event once per acquired address.
func (n *Network) publish(ifName string, ip net.IP) {
	if !n.matches(ifName) || !usableAddress(ip) {
		return
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	key := addressKey(ifName, ip)
	if n.known[key] {
		return
	}
	n.known[key] = true

	logrus.Infof("Address %s acquired on %s", ip, ifName)
	ev := event.ConnectivityEvent{Interface: ifName, Address: ip}
	for _, ch := range n.subscribers {
		select {
		case ch <- ev:
		default:
			logrus.Warnf("Connectivity event dropped for a slow subscriber")
		}
	}
}

// forget makes a later acquisition of the same address publish again.
func (n *Network) forget(ifName string, ip net.IP) {
	n.lock.Lock()
	defer n.lock.Unlock()
	delete(n.known, addressKey(ifName, ip))
}

func addressKey(ifName string, ip net.IP) string {
	return ifName + "/" + ip.String()
}

func usableAddress(ip net.IP) bool {
	return ip.To4() != nil && ip.IsGlobalUnicast()
}
