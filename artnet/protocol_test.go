package artnet

import "testing"

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var data [512]byte
	data[0] = 200
	data[511] = 7

	pkt := Encode(1, 2, 3, 42, &data)
	frame, err := Decode(pkt)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if frame.Length%2 != 0 || frame.Length < 2 || frame.Length > 512 {
		t.Fatalf("length %d out of bounds/parity", frame.Length)
	}
	if frame.Net != 1 || frame.Subnet != 2 || frame.Universe != 3 {
		t.Fatalf("address mismatch: %+v", frame.Address())
	}
	if frame.Sequence != 42 {
		t.Fatalf("sequence mismatch: got %d", frame.Sequence)
	}
	for i := 0; i < int(frame.Length); i++ {
		if frame.Values[i] != data[i] {
			t.Fatalf("value mismatch at %d: got %d want %d", i, frame.Values[i], data[i])
		}
	}
}

func TestEncodeAllZeroLength(t *testing.T) {
	var data [512]byte
	pkt := Encode(0, 0, 0, 0, &data)
	frame, err := Decode(pkt)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if frame.Length != 512 {
		t.Fatalf("expected length 512 for all-zero buffer, got %d", frame.Length)
	}
}

func TestEncodeLengthParityAndBounds(t *testing.T) {
	for _, last := range []int{0, 1, 2, 3, 100, 101, 511, 512} {
		var data [512]byte
		if last > 0 {
			data[last-1] = 9
		}
		pkt := Encode(0, 0, 0, 0, &data)
		frame, err := Decode(pkt)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if frame.Length%2 != 0 {
			t.Fatalf("length %d not even (last=%d)", frame.Length, last)
		}
		if frame.Length < 2 || frame.Length > 512 {
			t.Fatalf("length %d out of [2,512] (last=%d)", frame.Length, last)
		}
	}
}

func TestAddressMasking(t *testing.T) {
	pkt := Encode(0xFF, 0xFF, 0xFF, 0, &[512]byte{})
	frame, err := Decode(pkt)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if frame.Net != 0x7F {
		t.Fatalf("net not masked to 0x7F: got %#x", frame.Net)
	}
	if frame.Subnet != 0x0F || frame.Universe != 0x0F {
		t.Fatalf("subnet/universe not masked to 0x0F: got %#x/%#x", frame.Subnet, frame.Universe)
	}
}

func TestDecodeRejectsShortPacket(t *testing.T) {
	if _, err := Decode([]byte{1, 2, 3}); err != ErrShortPacket {
		t.Fatalf("expected ErrShortPacket, got %v", err)
	}
}

func TestDecodeRejectsNonArtNet(t *testing.T) {
	buf := make([]byte, 18)
	copy(buf, "NotArtNet\x00\x00")
	if _, err := Decode(buf); err != ErrNotArtNet {
		t.Fatalf("expected ErrNotArtNet, got %v", err)
	}
}

func TestDecodeRejectsUnsupportedOp(t *testing.T) {
	buf := make([]byte, 18)
	copy(buf[0:8], artNetID[:])
	// OpCode left at 0, not opDmx.
	if _, err := Decode(buf); err != ErrUnsupportedOp {
		t.Fatalf("expected ErrUnsupportedOp, got %v", err)
	}
}
