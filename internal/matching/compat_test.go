package matching

import (
	"errors"
	"sort"
	"testing"

	"lifelink/pkg/types"
)

func TestCompatibleDonorTypes(t *testing.T) {
	tests := []struct {
		recipient types.BloodType
		want      []types.BloodType
	}{
		{types.BloodTypeAPos, []types.BloodType{"A+", "A-", "O+", "O-"}},
		{types.BloodTypeANeg, []types.BloodType{"A-", "O-"}},
		{types.BloodTypeBPos, []types.BloodType{"B+", "B-", "O+", "O-"}},
		{types.BloodTypeBNeg, []types.BloodType{"B-", "O-"}},
		{types.BloodTypeABPos, []types.BloodType{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}},
		{types.BloodTypeABNeg, []types.BloodType{"A-", "B-", "AB-", "O-"}},
		{types.BloodTypeOPos, []types.BloodType{"O+", "O-"}},
		{types.BloodTypeONeg, []types.BloodType{"O-"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.recipient), func(t *testing.T) {
			got, err := CompatibleDonorTypes(tt.recipient)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !sameSet(got, tt.want) {
				t.Fatalf("CompatibleDonorTypes(%s) = %v, want %v", tt.recipient, got, tt.want)
			}
		})
	}
}

func TestCompatibleDonorTypesCoversEveryType(t *testing.T) {
	for _, bt := range types.BloodTypes {
		got, err := CompatibleDonorTypes(bt)
		if err != nil {
			t.Fatalf("%s: %v", bt, err)
		}
		found := false
		for _, d := range got {
			if d == bt {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s should accept its own type", bt)
		}
	}
}

func TestCompatibleDonorTypesRhNegativeOnlyAcceptsNegative(t *testing.T) {
	for _, recipient := range []types.BloodType{types.BloodTypeANeg, types.BloodTypeBNeg, types.BloodTypeABNeg, types.BloodTypeONeg} {
		got, _ := CompatibleDonorTypes(recipient)
		for _, d := range got {
			if d[len(d)-1] != '-' {
				t.Fatalf("%s recipient accepted Rh positive donor %s", recipient, d)
			}
		}
	}
}

func TestCompatibleDonorTypesUnknown(t *testing.T) {
	for _, in := range []types.BloodType{"", "C+", "o-", "AB"} {
		_, err := CompatibleDonorTypes(in)
		if !errors.Is(err, types.ErrInvalidBloodType) {
			t.Fatalf("CompatibleDonorTypes(%q) err = %v, want ErrInvalidBloodType", in, err)
		}
		if !errors.Is(err, types.ErrInvalidInput) {
			t.Fatalf("expected InvalidInput kind for %q", in)
		}
	}
}

func TestCompatibleDonorTypesReturnsCopy(t *testing.T) {
	first, _ := CompatibleDonorTypes(types.BloodTypeONeg)
	first[0] = types.BloodTypeABPos

	second, _ := CompatibleDonorTypes(types.BloodTypeONeg)
	if second[0] != types.BloodTypeONeg {
		t.Fatalf("table was mutated through returned slice: %v", second)
	}
}

func sameSet(a, b []types.BloodType) bool {
	if len(a) != len(b) {
		return false
	}
	as := make([]string, len(a))
	bs := make([]string, len(b))
	for i := range a {
		as[i] = string(a[i])
		bs[i] = string(b[i])
	}
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
