package web

import (
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// roundTrip returns the smoothed round trip time the kernel
// holds for conn.
func roundTrip(conn *net.TCPConn) (time.Duration, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}

	var info *unix.TCPInfo
	ctrlErr := raw.Control(func(fd uintptr) {
		info, err = unix.GetsockoptTCPInfo(int(fd), unix.IPPROTO_TCP, unix.TCP_INFO)
	})
	switch {
	case ctrlErr != nil:
		return 0, ctrlErr
	case err != nil:
		return 0, err
	}

	return time.Duration(info.Rtt) * time.Microsecond, nil
}
