package ioelem

import "bytes"

// MockHandler is an in-memory stand-in for a transport, used to exercise
// Input/Collector composition laws without a real socket: Drive feeds an
// Input to completion into an internal buffer, and Feed pushes bytes
// through a Collector.
type MockHandler struct {
	Sent bytes.Buffer
}

// Drive ticks in until it reports done, accumulating everything it writes
// into Sent.
func (m *MockHandler) Drive(in Input) error {
	if err := in.Init(); err != nil {
		return err
	}
	for {
		done, _, err := in.Tick(&m.Sent)
		if err != nil {
			return err
		}
		if done {
			return in.Close()
		}
	}
}

// Feed ticks collector with data in a single call, for tests that don't
// need to simulate short reads.
func Feed(c Collector, data []byte) (consumed int, done bool, err error) {
	if err := c.Init(); err != nil {
		return 0, false, err
	}
	consumed, done, err = c.Tick(data)
	if err != nil {
		return consumed, done, err
	}
	if done {
		err = c.Close()
	}
	return consumed, done, err
}
