//go:build !linux

package device

import (
	"context"
)

func (n *Network) watch(ctx context.Context) error {
	return n.poll(ctx)
}
