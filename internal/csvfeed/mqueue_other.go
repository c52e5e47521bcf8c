//go:build !linux

package csvfeed

import (
	"errors"
	"fmt"
)

var errIdle = errors.New("csvfeed: message queue idle")

func openSysVQueue(cfg Config) (Receiver, error) {
	return nil, fmt.Errorf("csvfeed: System V message queues are only supported on linux")
}
