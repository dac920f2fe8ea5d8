//go:build rp2040

package main

import (
	"machine"
	"time"

	"puzzlebox/core"
	"puzzlebox/protocol"
)

var (
	// Buffers for communication
	inputBuffer  *protocol.FifoBuffer
	outputBuffer *protocol.ScratchOutput
	transport    *protocol.Transport

	// Debug counters
	msgerrors uint32

	// USB connection state tracking
	usbWasDisconnected       bool
	consecutiveWriteFailures uint32
)

func main() {
	// Clear any watchdog state left over from before the reset
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	InitUSB()
	UpdateSystemTime()

	inputBuffer = protocol.NewFifoBuffer(256)
	outputBuffer = protocol.NewScratchOutput()

	presenter := newRingPresenter()
	m, err := core.NewMachine(core.DefaultConfig(), core.Devices{
		Reader:    InitReader(),
		Storage:   newFlashStore(),
		Presenter: presenter,
		Lock:      newRelayLock(pinLockRelay),
		Button:    newButton(pinButton),
		Sleep:     sleepMillis,
	})
	if err != nil {
		// Only a broken build gets here; blink red forever
		for {
			presenter.ReadFailed()
			time.Sleep(time.Second)
		}
	}

	link := core.NewLink(m)
	transport = protocol.NewTransport(outputBuffer, link.Handle)
	transport.SetResetCallback(func() {
		inputBuffer.Reset()
		outputBuffer.Reset()
	})
	// ACKs and responses leave as soon as they are encoded
	transport.SetFlushCallback(writeUSB)
	link.Attach(transport)
	link.SetFlush(writeUSB)
	core.SetDebugWriter(link.WriteDebug)

	go usbReaderLoop()

	m.Start()
	presenter.ModeChanged(m.Mode())

	for {
		// Recover from panics in the loop to keep the lock responsive
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					core.DumpEventRing()
					inputBuffer.Reset()
					outputBuffer.Reset()
				}
			}()

			UpdateSystemTime()

			if inputBuffer.Available() > 0 {
				data := inputBuffer.Data()
				originalLen := len(data)
				inputBuf := protocol.NewSliceInputBuffer(data)

				transport.Receive(inputBuf)

				if consumed := originalLen - inputBuf.Available(); consumed > 0 {
					inputBuffer.Pop(consumed)
				}
			}

			m.Tick()

			if len(outputBuffer.Result()) > 0 {
				writeUSB()
			}
		}()

		time.Sleep(time.Duration(m.Config().TickDelay) * time.Millisecond)
	}
}

// usbReaderLoop moves bytes from USB into the input FIFO
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			data, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(time.Millisecond)
				continue
			}

			// A host that comes back after a disconnect starts a new session
			if usbWasDisconnected {
				usbWasDisconnected = false
				inputBuffer.Reset()
				outputBuffer.Reset()
				transport.Reset()
				consecutiveWriteFailures = 0
			}

			if inputBuffer.Write([]byte{data}) == 0 {
				msgerrors++
				time.Sleep(10 * time.Millisecond)
			}
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// writeUSB drains the output buffer to USB
func writeUSB() {
	result := outputBuffer.Result()
	if len(result) == 0 {
		return
	}

	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			// No host listening; after repeated failures drop stale output
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				usbWasDisconnected = true
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
