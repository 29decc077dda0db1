package pangraph

import (
	"errors"
	"slices"
	"testing"

	simpgerrors "github.com/matzehuels/simpg/pkg/errors"
)

func TestLinearRange(t *testing.T) {
	tests := []struct {
		name        string
		first, last string
		want        []string
	}{
		{"ascending", "s8", "s11", []string{"s8", "s9", "s10", "s11"}},
		{"single", "s4", "s4", []string{"s4"}},
		{"leading zeros", "s009", "s011", []string{"s9", "s10", "s11"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LinearRange(tt.first, tt.last)
			if err != nil {
				t.Fatalf("LinearRange(%s, %s) error: %v", tt.first, tt.last, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("LinearRange(%s, %s) = %v, want %v", tt.first, tt.last, got, tt.want)
			}
		})
	}
}

func TestLinearRange_Reversed(t *testing.T) {
	got, err := LinearRange("s5", "s3")
	if !simpgerrors.Is(err, simpgerrors.ErrCodeInvalidInput) {
		t.Errorf("LinearRange(s5, s3) error = %v, want %s", err, simpgerrors.ErrCodeInvalidInput)
	}
	if got != nil {
		t.Errorf("LinearRange(s5, s3) = %v, want nil", got)
	}

	if _, err := LinearWalk("s5", "s3"); !simpgerrors.Is(err, simpgerrors.ErrCodeInvalidInput) {
		t.Errorf("LinearWalk(s5, s3) error = %v, want %s", err, simpgerrors.ErrCodeInvalidInput)
	}
}

func TestLinearRange_InvalidID(t *testing.T) {
	if _, err := LinearRange("abc", "s3"); !errors.Is(err, ErrInvalidSegmentID) {
		t.Errorf("LinearRange(abc) error = %v, want ErrInvalidSegmentID", err)
	}
	if _, err := LinearRange("s1", "s"); !errors.Is(err, ErrInvalidSegmentID) {
		t.Errorf("LinearRange(s1, s) error = %v, want ErrInvalidSegmentID", err)
	}
}
