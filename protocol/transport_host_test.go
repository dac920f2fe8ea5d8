package protocol

import (
	"errors"
	"net"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// runDevice serves the device end of conn with a Transport until conn
// closes. It returns a channel closed on exit.
func runDevice(conn net.Conn, handler func(tr *Transport) CommandHandler) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer conn.Close()

		output := NewScratchOutput()
		var tr *Transport
		tr = NewTransport(output, func(msgID uint16, data *[]byte) error {
			return handler(tr)(msgID, data)
		})
		fifo := NewFifoBuffer(512)
		buf := make([]byte, 64)
		for {
			n, err := conn.Read(buf)
			if err != nil {
				return
			}
			fifo.Write(buf[:n])
			tr.Receive(fifo)
			if output.CurPosition() > 0 {
				if _, err := conn.Write(output.Result()); err != nil {
					return
				}
				output.Reset()
			}
		}
	}()
	return done
}

func stateDevice(tr *Transport) CommandHandler {
	return func(msgID uint16, data *[]byte) error {
		switch msgID {
		case MsgGetState:
			tr.SendMessage(MsgEvent, func(out OutputBuffer) {
				EventReport{Clock: 9, Kind: 2}.Encode(out)
			})
			tr.SendMessage(MsgState, func(out OutputBuffer) {
				StateReport{Mode: 1, Selection: 4, Length: 4}.Encode(out)
			})
		case MsgSetDebug:
			_, err := DecodeVLQUint(data)
			return err
		}
		return nil
	}
}

func TestHostTransportRequest(t *testing.T) {
	hostEnd, deviceEnd := net.Pipe()
	done := runDevice(deviceEnd, stateDevice)

	host := NewHostTransport(hostEnd)

	events := make(chan uint16, 4)
	host.SetResponseHandler(func(msgID uint16, data *[]byte) error {
		events <- msgID
		return nil
	})

	msg, err := host.Request(MsgGetState, nil, MsgState, time.Second)
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	args := msg.Args
	report, err := DecodeStateReport(&args)
	if err != nil {
		t.Fatalf("DecodeStateReport: %v", err)
	}
	if report.Mode != 1 || report.Selection != 4 || report.Length != 4 {
		t.Errorf("Unexpected state %+v", report)
	}
	if host.CurrentSequence() != 0x11 {
		t.Errorf("Expected sequence 0x11 after one command, got 0x%02X", host.CurrentSequence())
	}

	select {
	case id := <-events:
		if id != MsgEvent {
			t.Errorf("Expected event first, got %s", MessageName(id))
		}
	case <-time.After(time.Second):
		t.Error("Response handler not called")
	}

	if err := host.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	<-done
}

func TestHostTransportSequenceWraps(t *testing.T) {
	hostEnd, deviceEnd := net.Pipe()
	done := runDevice(deviceEnd, stateDevice)
	host := NewHostTransport(hostEnd)

	for i := 0; i < 20; i++ {
		err := host.SendCommand(MsgSetDebug, func(out OutputBuffer) {
			EncodeVLQUint(out, 1)
		})
		if err != nil {
			t.Fatalf("SendCommand %d: %v", i, err)
		}
	}
	if host.CurrentSequence() != 0x14 {
		t.Errorf("Expected sequence 0x14 after 20 commands, got 0x%02X", host.CurrentSequence())
	}

	host.Close()
	<-done
}

func TestHostTransportAckTimeout(t *testing.T) {
	hostEnd, deviceEnd := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		buf := make([]byte, 64)
		for {
			if _, err := deviceEnd.Read(buf); err != nil {
				deviceEnd.Close()
				return
			}
		}
	}()

	host := NewHostTransport(hostEnd)
	err := host.SendCommandWithTimeout(MsgIdentify, nil, 20*time.Millisecond)
	if !errors.Is(err, ErrAckTimeout) {
		t.Errorf("Expected ErrAckTimeout, got %v", err)
	}

	host.Close()
	<-done
}

func TestHostTransportClosed(t *testing.T) {
	hostEnd, deviceEnd := net.Pipe()
	done := runDevice(deviceEnd, stateDevice)
	host := NewHostTransport(hostEnd)

	host.Close()
	<-done

	if _, err := host.ReceiveResponse(time.Second); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := host.SendCommand(MsgGetState, nil); !errors.Is(err, ErrClosed) {
		t.Errorf("SendCommand after Close: expected ErrClosed, got %v", err)
	}
	// Second close is a no-op
	if err := host.Close(); err != nil {
		t.Errorf("Second Close: %v", err)
	}
}

func TestHostTransportMessageTooLong(t *testing.T) {
	hostEnd, deviceEnd := net.Pipe()
	done := runDevice(deviceEnd, stateDevice)
	host := NewHostTransport(hostEnd)
	defer func() {
		host.Close()
		<-done
	}()

	err := host.SendCommand(MsgSetDebug, func(out OutputBuffer) {
		out.Output(make([]byte, MessageLengthMax))
	})
	if !errors.Is(err, ErrMessageTooLong) {
		t.Errorf("Expected ErrMessageTooLong, got %v", err)
	}
}
