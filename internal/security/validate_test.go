package security

import (
	"testing"
	"time"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{"ana@example.com", "a.b+c@farm.co.ng"}
	for _, e := range valid {
		if !ValidateEmail(e) {
			t.Fatalf("expected %q valid", e)
		}
	}
	invalid := []string{"", "no-at", "a b@x.com", "a@b"}
	for _, e := range invalid {
		if ValidateEmail(e) {
			t.Fatalf("expected %q invalid", e)
		}
	}
}

func TestValidatePhone(t *testing.T) {
	if !ValidatePhone("+234 801 234 5678") {
		t.Fatal("expected international number valid")
	}
	if ValidatePhone("123") {
		t.Fatal("expected short number invalid")
	}
}

func TestValidateName(t *testing.T) {
	if !ValidateName("Ngozi O'Brien-Ade") {
		t.Fatal("expected name with apostrophe and hyphen valid")
	}
	if ValidateName("x") || ValidateName("<script>") {
		t.Fatal("expected invalid names rejected")
	}
}

func TestValidatePassword(t *testing.T) {
	if !ValidatePassword("Abcdef12") {
		t.Fatal("expected compliant password valid")
	}
	for _, p := range []string{"short1A", "alllowercase1", "ALLUPPER1", "NoDigitsHere"} {
		if ValidatePassword(p) {
			t.Fatalf("expected %q invalid", p)
		}
	}
}

func TestValidatePrice(t *testing.T) {
	valid := []string{"0.01", "25", "999999.99", "1000000"}
	for _, p := range valid {
		if !ValidatePrice(p) {
			t.Fatalf("expected %q valid", p)
		}
	}
	invalid := []string{"0", "-5", "1.234", "1000000.01", "abc", ""}
	for _, p := range invalid {
		if ValidatePrice(p) {
			t.Fatalf("expected %q invalid", p)
		}
	}
}

func TestSanitizeText(t *testing.T) {
	got := SanitizeText(`  <b>hola</b> javascript:alert(1) onclick=x  `)
	if got != "bhola/b alert(1) x" {
		t.Fatalf("unexpected sanitized text %q", got)
	}
}

func TestValidateFileUpload(t *testing.T) {
	if ok, _ := ValidateFileUpload("image/png", 1024); !ok {
		t.Fatal("expected small png accepted")
	}
	if ok, msg := ValidateFileUpload("image/png", 6*1024*1024); ok || msg == "" {
		t.Fatal("expected 6MB rejected with message")
	}
	if ok, _ := ValidateFileUpload("application/pdf", 1024); ok {
		t.Fatal("expected pdf rejected by image allow-list")
	}
}

func TestMemoryRateLimiter_FixedWindow(t *testing.T) {
	limiter := NewMemoryRateLimiter(0, 0) // defaults: 5 por 60s

	for i := 0; i < 5; i++ {
		if !limiter.Allow("login:ana@example.com") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if limiter.Allow("login:ana@example.com") {
		t.Fatal("sixth attempt within window should be denied")
	}
	if !limiter.Allow("login:otro@example.com") {
		t.Fatal("different key should have its own window")
	}
}

func TestMemoryRateLimiter_WindowExpiry(t *testing.T) {
	limiter := NewMemoryRateLimiter(0, 2)
	base := time.Now()
	limiter.now = func() time.Time { return base }

	if !limiter.Allow("k") || !limiter.Allow("k") {
		t.Fatal("first two attempts should pass")
	}
	if limiter.Allow("k") {
		t.Fatal("third attempt should be denied")
	}

	limiter.now = func() time.Time { return base.Add(61 * time.Second) }
	if !limiter.Allow("k") {
		t.Fatal("attempt after window should pass")
	}
}
