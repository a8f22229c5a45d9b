package fingerprint

import "testing"

func TestNormalizeSubject_Idempotent(t *testing.T) {
	cases := []string{
		"Your $45.20 payment has arrived",
		"Hi Marcus, your weekly summary for 2024-03-04",
		"Reminder: background check due 3/4/2024",
		"Dashing opportunity #4821093 near you",
		"Hello Janet — March 4th update",
	}
	for _, c := range cases {
		once := NormalizeSubject(c)
		twice := NormalizeSubject(once)
		if once != twice {
			t.Errorf("not idempotent: %q -> %q -> %q", c, once, twice)
		}
	}
}

func TestNormalizeSubject_TemplateEquivalence(t *testing.T) {
	a := NormalizeSubject("Hi Marcus, your payment of $204.11 is on its way")
	b := NormalizeSubject("Hi Janet, your payment of $87.50 is on its way")
	if a != b {
		t.Errorf("expected templated subjects to normalize equal: %q vs %q", a, b)
	}
}

func TestNormalizeSubject_DateForms(t *testing.T) {
	cases := map[string]string{
		"due 2024-03-04":      "due DATE",
		"due 3/4/2024":        "due DATE",
		"due March 4th":       "due DATE",
	}
	for in, want := range cases {
		got := NormalizeSubject(in)
		if got != want {
			t.Errorf("NormalizeSubject(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSenderDomain(t *testing.T) {
	cases := map[string]string{
		"DoorDash <no-reply@doordash.com>": "doordash.com",
		"support@Fleet.Example.COM":        "fleet.example.com",
		"no-reply@doordash.com":            "doordash.com",
	}
	for in, want := range cases {
		got := SenderDomain(in)
		if got != want {
			t.Errorf("SenderDomain(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMake_StableAndDistinguishing(t *testing.T) {
	f1 := Make("Hi Marcus, your payment of $204.11 is on its way", "no-reply@doordash.com")
	f2 := Make("Hi Janet, your payment of $87.50 is on its way", "no-reply@doordash.com")
	if f1 != f2 {
		t.Errorf("expected equal fingerprints for template-equivalent messages, got %q vs %q", f1, f2)
	}
	if len(f1) != 16 {
		t.Errorf("expected 16-char fingerprint, got %d chars: %q", len(f1), f1)
	}

	f3 := Make("Your account has been deactivated", "no-reply@doordash.com")
	if f1 == f3 {
		t.Error("expected distinct templates to produce distinct fingerprints")
	}
}
