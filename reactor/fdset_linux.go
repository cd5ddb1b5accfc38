//go:build linux

package reactor

import "golang.org/x/sys/unix"

const fdSetWordBits = 64

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/fdSetWordBits] |= 1 << (uint(fd) % fdSetWordBits)
}

func fdClr(set *unix.FdSet, fd int) {
	set.Bits[fd/fdSetWordBits] &^= 1 << (uint(fd) % fdSetWordBits)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/fdSetWordBits]&(1<<(uint(fd)%fdSetWordBits)) != 0
}
