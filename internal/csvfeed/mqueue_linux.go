//go:build linux

package csvfeed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

const (
	// defaultMQKey mirrors the fixed key (0x2222) the original producer and
	// receiver programs agreed on out of band.
	defaultMQKey = 0x2222
	msgTextSize  = 256
	mtypeSize    = 8 // sizeof(long) on 64-bit Linux
	pollInterval = 100 * time.Millisecond
	maxIdlePolls = 20 // ~2s of idle polling before treating the queue as empty
)

var errIdle = errors.New("csvfeed: message queue idle")

// sysvQueue is a Receiver backed by a real System V message queue. Wire
// format matches the C `struct Msg { long type; char text[256]; }`: an
// 8-byte little-endian mtype header followed by the raw text bytes.
type sysvQueue struct {
	id int
}

// openSysVQueue resolves a message queue key from cfg and opens or creates
// the queue.
func openSysVQueue(cfg Config) (Receiver, error) {
	key := defaultMQKey
	if cfg.MQKeyID != 0 {
		key = cfg.MQKeyID
	}
	id, err := unix.Msgget(key, unix.IPC_CREAT|0o666)
	if err != nil {
		return nil, fmt.Errorf("csvfeed: msgget: %w", err)
	}
	return &sysvQueue{id: id}, nil
}

// Receive polls the queue with IPC_NOWAIT, matching the original receiver's
// poll-and-backoff loop: ENOMSG is retried up to maxIdlePolls times before
// Receive gives up and reports the transport idle, so the caller's own
// loop controls whether to keep waiting.
func (q *sysvQueue) Receive() (string, bool, error) {
	buf := make([]byte, mtypeSize+msgTextSize)
	idle := 0
	for {
		n, err := unix.Msgrcv(q.id, buf, 1, unix.IPC_NOWAIT)
		if err == nil {
			text := string(buf[mtypeSize : mtypeSize+n])
			for i := 0; i < len(text); i++ {
				if text[i] == 0 {
					text = text[:i]
					break
				}
			}
			return text, text != "", nil
		}
		if errors.Is(err, unix.ENOMSG) {
			if idle >= maxIdlePolls {
				return "", false, errIdle
			}
			idle++
			time.Sleep(pollInterval)
			continue
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		return "", false, fmt.Errorf("csvfeed: msgrcv: %w", err)
	}
}

func (q *sysvQueue) Close() error {
	return nil
}

// sendCSVLine is used by tests and by any in-process producer to push a
// line onto the same queue a sysvQueue reads from.
func sendCSVLine(id int, line string) error {
	buf := make([]byte, mtypeSize+msgTextSize)
	binary.LittleEndian.PutUint64(buf[:mtypeSize], 1)
	n := copy(buf[mtypeSize:], line)
	return unix.Msgsnd(id, buf[:mtypeSize+n], 0)
}
