package signature

import (
	"strings"
	"testing"
)

func TestSignKnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got := Sign("Jefe", []byte("what do ya want for nothing?"))
	want := "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843"
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestVerify(t *testing.T) {
	payload := []byte(`{"invoiceNumber":"INV-1"}`)
	sig := Sign("s3cret", payload)

	cases := []struct {
		name      string
		secret    string
		signature string
		want      bool
	}{
		{"match", "s3cret", sig, true},
		{"upper case hex", "s3cret", strings.ToUpper(sig), true},
		{"padded", "s3cret", "  " + sig + " ", true},
		{"wrong secret", "other", sig, false},
		{"missing header", "s3cret", "", false},
		{"empty secret", "", sig, false},
		{"truncated", "s3cret", sig[:10], false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Verify(tc.secret, payload, tc.signature); got != tc.want {
				t.Fatalf("Verify() = %v, want %v", got, tc.want)
			}
		})
	}
}
