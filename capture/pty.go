// Copyright 2026 The Termplex Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

// PTY is an allocated master/slave pseudo-terminal pair. The slave is
// handed to the child as its controlling terminal and closed in the
// parent right after spawn; the master stays open for the relay loop.
type PTY struct {
	Master    *os.File
	Slave     *os.File
	SlavePath string

	masterOnce sync.Once
	slaveOnce  sync.Once
}

// OpenPTY allocates a pseudo-terminal pair using the Linux devpts
// interface and opens both ends.
func OpenPTY() (*PTY, error) {
	master, err := os.OpenFile("/dev/ptmx", os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/ptmx: %w", err)
	}

	fd := int(master.Fd())

	ptyNumber, err := unix.IoctlGetInt(fd, unix.TIOCGPTN)
	if err != nil {
		master.Close()
		return nil, fmt.Errorf("get PTY number (TIOCGPTN): %w", err)
	}

	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPTLCK, 0); err != nil {
		master.Close()
		return nil, fmt.Errorf("unlock PTY slave (TIOCSPTLCK): %w", err)
	}

	slavePath := fmt.Sprintf("/dev/pts/%d", ptyNumber)
	slave, err := os.OpenFile(slavePath, os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		master.Close()
		return nil, fmt.Errorf("open PTY slave %s: %w", slavePath, err)
	}

	return &PTY{Master: master, Slave: slave, SlavePath: slavePath}, nil
}

// SetSize sets the terminal dimensions on the master fd using
// TIOCSWINSZ. The kernel delivers SIGWINCH to the foreground process
// group attached to the slave side, so the child learns of the change
// without any explicit signaling here.
func (p *PTY) SetSize(columns, rows uint16) error {
	winsize := &unix.Winsize{
		Col: columns,
		Row: rows,
	}
	if err := unix.IoctlSetWinsize(int(p.Master.Fd()), unix.TIOCSWINSZ, winsize); err != nil {
		return fmt.Errorf("set PTY window size: %w", err)
	}
	return nil
}

// Size reads the current terminal dimensions from the master fd.
func (p *PTY) Size() (columns, rows uint16, err error) {
	winsize, err := unix.IoctlGetWinsize(int(p.Master.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("get PTY window size: %w", err)
	}
	return winsize.Col, winsize.Row, nil
}

// CloseSlave closes the parent's copy of the slave end. Safe to call
// repeatedly: the first call closes, later calls are no-ops. The child
// keeps its own descriptors, so this never disturbs a running session.
func (p *PTY) CloseSlave() error {
	var err error
	p.slaveOnce.Do(func() { err = p.Slave.Close() })
	return err
}

// CloseMaster closes the master end, which unblocks any pending read
// and hangs up the slave side. Safe to call repeatedly.
func (p *PTY) CloseMaster() error {
	var err error
	p.masterOnce.Do(func() { err = p.Master.Close() })
	return err
}

// Close releases both ends. Teardown paths may run it after the slave
// was already dropped post-spawn; every combination stays a no-op the
// second time.
func (p *PTY) Close() error {
	slaveErr := p.CloseSlave()
	masterErr := p.CloseMaster()
	if masterErr != nil {
		return masterErr
	}
	return slaveErr
}
