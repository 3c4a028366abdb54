package budget

import "testing"

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		remaining float64
		want      Status
	}{
		{100, Healthy},
		{50, Healthy}, // exactly half is not below half
		{49.99, Warning},
		{25, Warning}, // exactly a quarter is not below a quarter
		{24.99, Critical},
		{0.01, Critical},
		{0, Exhausted},
		{-10, Exhausted},
	}

	for _, c := range cases {
		if got := Classify(100, c.remaining); got != c.want {
			t.Fatalf("Classify(100, %v) = %s, want %s", c.remaining, got, c.want)
		}
	}
}

func TestStatusTextRoundTrip(t *testing.T) {
	for _, s := range []Status{Healthy, Warning, Critical, Exhausted} {
		b, err := s.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", s, err)
		}
		var got Status
		if err := got.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if got != s {
			t.Fatalf("round trip %s -> %s", s, got)
		}
	}

	var s Status
	if err := s.UnmarshalText([]byte("broke")); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if Status(9).String() != "Status(9)" {
		t.Fatalf("unexpected String for out-of-range status: %s", Status(9))
	}
}
