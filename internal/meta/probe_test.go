package meta

import "testing"

func TestQuantizeBitrate(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"exact 128k", 128000, 128000},
		{"just below 64k", 60000, 64000},
		{"between 96k and 128k, closer to 128k", 120000, 128000},
		{"zero", 0, 0},
		{"negative", -5, 0},
		{"above highest step", 400000, 320000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantizeBitrate(tt.input); got != tt.expected {
				t.Errorf("quantizeBitrate(%d) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsVBRCodec(t *testing.T) {
	if !isVBRCodec("mp3") {
		t.Error("expected mp3 to be reported as VBR-capable")
	}
	if isVBRCodec("pcm_s16le") {
		t.Error("expected raw PCM not to be reported as VBR-capable")
	}
}
