package config

import "testing"

func TestUploadCeilings(t *testing.T) {
	if got := MaxUploadBytes(); got != 10<<20 {
		t.Fatalf("MaxUploadBytes default = %d, want %d", got, 10<<20)
	}
	if got := MaxLogoBytes(); got != 5<<20 {
		t.Fatalf("MaxLogoBytes default = %d, want %d", got, 5<<20)
	}
	if MaxLogoBytes() >= MaxUploadBytes() {
		t.Fatal("logo ceiling must stay below the workbook ceiling")
	}

	t.Setenv("MAX_LOGO_BYTES", "1048576")
	if got := MaxLogoBytes(); got != 1<<20 {
		t.Fatalf("MaxLogoBytes override = %d, want %d", got, 1<<20)
	}

	t.Setenv("MAX_LOGO_BYTES", "not-a-number")
	if got := MaxLogoBytes(); got != 5<<20 {
		t.Fatalf("MaxLogoBytes with bad env = %d, want default %d", got, 5<<20)
	}
}
