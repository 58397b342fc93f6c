package types

import (
	"strings"
	"testing"
)

func TestParseSocialType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SocialType
		wantErr bool
	}{
		{name: "twitter", input: "twitter", want: SocialTwitter},
		{name: "mixed case farcaster", input: " Farcaster ", want: SocialFarcaster},
		{name: "unknown network", input: "lens", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSocialType(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSocialType(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSocialType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSocialHandle_IsEmpty(t *testing.T) {
	if !(SocialHandle{Type: SocialTwitter, Handle: "   "}).IsEmpty() {
		t.Error("whitespace-only handle should be empty")
	}
	if (SocialHandle{Type: SocialTwitter, Handle: " alice "}).IsEmpty() {
		t.Error("padded handle should not be empty")
	}
}

func TestRiskProfile_Total(t *testing.T) {
	p := RiskProfile{"A": 60, "B": 40}
	if p.Total() != 100 {
		t.Errorf("Total() = %d, want 100", p.Total())
	}
	if !p.IsComplete() {
		t.Error("IsComplete() = false, want true")
	}

	p["C"] = 1
	if p.IsComplete() {
		t.Error("IsComplete() = true after exceeding 100")
	}
}

func TestRiskProfile_CloneIsIndependent(t *testing.T) {
	orig := RiskProfile{"A": 10}
	clone := orig.Clone()
	clone["A"] = 90

	if orig["A"] != 10 {
		t.Errorf("original mutated through clone: %d", orig["A"])
	}
	if RiskProfile(nil).Clone() != nil {
		t.Error("Clone() of nil should stay nil")
	}
}

func TestDefaultRiskProfile(t *testing.T) {
	got := DefaultRiskProfile([]RiskCategory{
		{Key: "stable", Default: 70},
		{Key: "degen", Default: 30},
	})
	if got["stable"] != 70 || got["degen"] != 30 || len(got) != 2 {
		t.Errorf("DefaultRiskProfile() = %v", got)
	}
}

func TestFieldErrors(t *testing.T) {
	f := FieldErrors{}
	f.Add(FieldTwitterHandle, "already taken")
	f.Add(FieldAddress, "invalid")
	f.Add(FieldAddress, "required")

	if !f.Has(FieldAddress) || f.Has(FieldFarcasterHandle) {
		t.Errorf("Has() mismatch: %v", f)
	}

	msg := f.Error()
	if !strings.HasPrefix(msg, "address: invalid required") {
		t.Errorf("Error() = %q, want sorted fields first", msg)
	}

	other := FieldErrors{FieldTwitterHandle: {"too long"}}
	f.Merge(other)
	if len(f[FieldTwitterHandle]) != 2 {
		t.Errorf("Merge() twitter_handle = %v", f[FieldTwitterHandle])
	}
}
