package device

import (
	"context"
	"github.com/sirupsen/logrus"
	"github.com/vishvananda/netlink"
)

// watch follows kernel address notifications, falling back to polling when
// the netlink socket is not available.
func (n *Network) watch(ctx context.Context) error {
	updates := make(chan netlink.AddrUpdate, 16)
	done := make(chan struct{})
	defer close(done)

	if err := netlink.AddrSubscribe(updates, done); err != nil {
		logrus.Warnf("Unable to subscribe to address updates, polling instead: %v", err)
		return n.poll(ctx)
	}

	n.publishPresent()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				logrus.Warnf("Address updates closed, polling instead")
				return n.poll(ctx)
			}
			name := linkName(update.LinkIndex)
			if update.NewAddr {
				n.publish(name, update.LinkAddress.IP)
			} else {
				n.forget(name, update.LinkAddress.IP)
			}
		}
	}
}

func (n *Network) publishPresent() {
	links, err := netlink.LinkList()
	if err != nil {
		logrus.Warnf("Unable to list links: %v", err)
		return
	}
	for _, link := range links {
		name := link.Attrs().Name
		if !n.matches(name) {
			continue
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
		if err != nil {
			logrus.Debugf("Unable to list addresses of %s: %v", name, err)
			continue
		}
		for _, addr := range addrs {
			if addr.IPNet != nil {
				n.publish(name, addr.IPNet.IP)
			}
		}
	}
}

func linkName(index int) string {
	link, err := netlink.LinkByIndex(index)
	if err != nil {
		logrus.Debugf("Unknown link %d: %v", index, err)
		return ""
	}
	return link.Attrs().Name
}
