package vault

import "testing"

func TestIsWeakSecret(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		secret string
		weak   bool
	}{
		{name: "eight letters", secret: "password", weak: true},
		{name: "mixed-case letters only", secret: "PassWord", weak: true},
		{name: "digits only", secret: "12345678", weak: true},
		{name: "short mixed", secret: "short1", weak: true},
		{name: "empty", secret: "", weak: true},
		{name: "seven chars mixed", secret: "abc123!", weak: true},
		{name: "eight chars mixed", secret: "abc123!@", weak: false},
		{name: "long alphanumeric", secret: "n0tweak9", weak: false},
		{name: "unicode letters only", secret: "contraseña", weak: true},
		{name: "seven chars with multibyte rune", secret: "abc12ñ!", weak: true},
		{name: "eight chars with multibyte rune", secret: "abc12ñ!@", weak: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := isWeakSecret(tt.secret); got != tt.weak {
				t.Errorf("isWeakSecret(%q) = %v, want %v", tt.secret, got, tt.weak)
			}
		})
	}
}
