package ram

import (
	"errors"
	"testing"
)

type fakeConsole struct {
	written []byte
}

func (f *fakeConsole) WriteByte(b byte) error {
	f.written = append(f.written, b)
	return nil
}

func TestReadWriteRoundTrip(t *testing.T) {
	con := &fakeConsole{}
	r := New(DefaultSize, con)

	if err := r.Write(0x10, 0x42); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := r.Read(0x10); got != 0x42 {
		t.Fatalf("Read = 0x%02x, want 0x42", got)
	}
}

func TestWriteOutOfRange(t *testing.T) {
	con := &fakeConsole{}
	r := New(4, con)

	err := r.Write(4, 0x01)
	var rangeErr ErrAddressOutOfRange
	if !errors.As(err, &rangeErr) {
		t.Fatalf("Write(4, ...) = %v, want ErrAddressOutOfRange", err)
	}
	if rangeErr.Address != 4 {
		t.Fatalf("rangeErr.Address = %d, want 4", rangeErr.Address)
	}
}

func TestConsoleOutWrite(t *testing.T) {
	con := &fakeConsole{}
	r := New(DefaultSize, con)

	if err := r.Write(ConsoleOut, 'h'); err != nil {
		t.Fatalf("Write(ConsoleOut, ...): %v", err)
	}
	if err := r.Write(ConsoleOut, 'i'); err != nil {
		t.Fatalf("Write(ConsoleOut, ...): %v", err)
	}
	if string(con.written) != "hi" {
		t.Fatalf("console.written = %q, want %q", con.written, "hi")
	}
}

func TestBufferedOutAccumulatesAndClears(t *testing.T) {
	con := &fakeConsole{}
	r := New(DefaultSize, con)

	if err := r.Write(ConsoleBufferedOut, 0x01); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := r.Write(ConsoleBufferedOut, 0x02); err != nil {
		t.Fatalf("Write: %v", err)
	}

	buf := r.TakeOutBuffer()
	if len(buf) != 2 || buf[0] != 0x01 || buf[1] != 0x02 {
		t.Fatalf("TakeOutBuffer = %v, want [1 2]", buf)
	}

	if again := r.TakeOutBuffer(); len(again) != 0 {
		t.Fatalf("TakeOutBuffer after take = %v, want empty", again)
	}
}

func TestBufferedOutDoesNotTouchMemory(t *testing.T) {
	con := &fakeConsole{}
	r := New(DefaultSize, con)

	if err := r.Write(ConsoleBufferedOut, 0xAB); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := r.Read(ConsoleBufferedOut); got != 0 {
		t.Fatalf("Read(ConsoleBufferedOut) = 0x%02x, want 0 (write-only sink)", got)
	}
}

func TestPageOffsetAddressing(t *testing.T) {
	con := &fakeConsole{}
	r := New(DefaultSize, con)

	if err := r.WritePageOffset(0x01, 0xFD, 0x99); err != nil {
		t.Fatalf("WritePageOffset: %v", err)
	}
	if got := r.ReadPageOffset(0x01, 0xFD); got != 0x99 {
		t.Fatalf("ReadPageOffset = 0x%02x, want 0x99", got)
	}
	if got := r.Read(0x01FD); got != 0x99 {
		t.Fatalf("Read(0x01FD) = 0x%02x, want 0x99", got)
	}
}

func TestReadOutOfRangeReturnsZero(t *testing.T) {
	con := &fakeConsole{}
	r := New(4, con)

	if got := r.Read(100); got != 0 {
		t.Fatalf("Read(100) = 0x%02x, want 0", got)
	}
}
