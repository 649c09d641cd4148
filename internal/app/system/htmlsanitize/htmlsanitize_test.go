package htmlsanitize_test

import (
	"testing"

	"github.com/dalemusser/shopkeep/internal/app/system/htmlsanitize"
)

func TestPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Manage orders", "Manage orders"},
		{"ampersand round-trips", "Orders & returns", "Orders & returns"},
		{"trims", "  read-only  ", "read-only"},
		{"strips tags", "<p><strong>Bold</strong> role</p>", "Bold role"},
		{"drops script", "ok<script>alert('xss')</script>", "ok"},
		{"drops handler", `<span onclick="x()">Click</span>`, "Click"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.PlainText(tt.in); got != tt.want {
				t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsPlainText(t *testing.T) {
	if !htmlsanitize.IsPlainText("") {
		t.Error("expected empty string to be plain text")
	}
	if !htmlsanitize.IsPlainText("Hello, World!") {
		t.Error("expected string without tags to be plain text")
	}
	if htmlsanitize.IsPlainText("<p>Hello</p>") {
		t.Error("expected string with tags to NOT be plain text")
	}
}
