package crypto

import (
	"strings"
	"testing"
	"time"
)

// Well-known test vector key; never used outside tests.
const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestSignRecoverRoundTrip(t *testing.T) {
	signer, err := NewSigner(testKeyHex)
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	msg := AuthMessage(time.Now().Unix())
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	recovered, err := RecoverAddress(msg, sig)
	if err != nil {
		t.Fatalf("RecoverAddress: %v", err)
	}
	if recovered != signer.Address() {
		t.Errorf("recovered %s, want %s", recovered.Hex(), signer.Address().Hex())
	}
}

func TestRecoverAddressNormalisesRecoveryID(t *testing.T) {
	signer, err := NewSigner("0x" + testKeyHex)
	if err != nil {
		t.Fatalf("NewSigner with prefix: %v", err)
	}

	msg := AuthMessage(1700000000)
	sig, err := signer.Sign(msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// Sign emits legacy v in {27,28}; the 0/1 form must recover too.
	raw := strings.TrimPrefix(sig, "0x")
	v := raw[len(raw)-2:]
	var lowered string
	switch v {
	case "1b":
		lowered = raw[:len(raw)-2] + "00"
	case "1c":
		lowered = raw[:len(raw)-2] + "01"
	default:
		t.Fatalf("unexpected recovery byte %q", v)
	}

	for _, s := range []string{sig, "0x" + lowered, lowered} {
		recovered, err := RecoverAddress(msg, s)
		if err != nil {
			t.Fatalf("RecoverAddress(%q): %v", s, err)
		}
		if recovered != signer.Address() {
			t.Errorf("recovered %s, want %s", recovered.Hex(), signer.Address().Hex())
		}
	}
}

func TestRecoverAddressRejectsTampering(t *testing.T) {
	signer, _ := NewSigner(testKeyHex)
	sig, err := signer.Sign(AuthMessage(1700000000))
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	// A different message yields a different signer, never an error-free
	// match.
	recovered, err := RecoverAddress(AuthMessage(1700000001), sig)
	if err == nil && recovered == signer.Address() {
		t.Error("tampered message recovered the original address")
	}
}

func TestRecoverAddressRejectsMalformedSignatures(t *testing.T) {
	for _, sig := range []string{"", "0x", "0xdeadbeef", "not-hex"} {
		if _, err := RecoverAddress("msg", sig); err == nil {
			t.Errorf("RecoverAddress(%q) succeeded, want error", sig)
		}
	}
}

func TestAuthMessageFormat(t *testing.T) {
	if got := AuthMessage(1700000000); got != "tunemarket:1700000000" {
		t.Errorf("AuthMessage = %q", got)
	}
}
