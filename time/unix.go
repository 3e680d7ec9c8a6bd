//go:build unix

package time

import "golang.org/x/sys/unix"

func FromUnix(ts unix.Timespec) Timespec {
	return Timespec{Sec: int64(ts.Sec), Nsec: int64(ts.Nsec)}
}

