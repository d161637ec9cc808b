package encoding

import "testing"

func TestEUCKRToUTF8(t *testing.T) {
	encoded := UTF8ToEUCKR("문짝")
	if len(encoded) != 4 {
		t.Fatalf("encoded length = %d, want 4 (two double-byte characters)", len(encoded))
	}
	if string(encoded) == "문짝" {
		t.Fatal("encoding did not change the bytes")
	}

	if got := EUCKRToUTF8(encoded); got != "문짝" {
		t.Errorf("EUCKRToUTF8 = %q, want %q", got, "문짝")
	}
	if got := EUCKRToUTF8([]byte("COLLISION")); got != "COLLISION" {
		t.Errorf("ASCII changed: %q", got)
	}
}

func TestFixedStringToUTF8(t *testing.T) {
	field := make([]byte, 40)
	copy(field, UTF8ToEUCKR("바닥_01"))
	field[len(field)-1] = 'x' // Garbage after the terminator

	if got := FixedStringToUTF8(field); got != "바닥_01" {
		t.Errorf("FixedStringToUTF8 = %q, want %q", got, "바닥_01")
	}

	full := []byte("NODE")
	if got := FixedStringToUTF8(full); got != "NODE" {
		t.Errorf("unterminated field = %q, want NODE", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`data\model\House.RSM`, "data/model/house.rsm"},
		{"/data/model/a.rsm", "data/model/a.rsm"},
		{"data/model/a.rsm", "data/model/a.rsm"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizePath(tt.in); got != tt.want {
				t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
