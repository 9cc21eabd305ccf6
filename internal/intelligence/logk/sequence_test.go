package logk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSequence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"N->[CuH2]<-N", "N->[Cu]<-N"},
		{"O->[FeH]", "O->[Fe]"},
		{"[NH3+]<-[Cu]", "[N+]<-[Cu]"},
		{"[OH2+2]<-[Zn]", "[O+2]<-[Zn]"},
		{"[NH3+]<-[CuH2]<-[NH3+]", "[N+]<-[CuH2]<-[NH3+]"},
		{"N->[Cu+2]", "N->[Cu+2]"},
		{"[Cu]<-[NH3+]", "[Cu]<-[NH3+]"},
		{"CCO", "CCO"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanSequence(tt.in))
		})
	}
}

func TestCleanSequence_ChargedAcceptor(t *testing.T) {
	in := "N->[CuH2+]<-N"
	assert.Equal(t, "N->[Cu+]<-N", StripAcceptorHydrogens(in))
	assert.Equal(t, "N->[Cu+]<-N", CleanSequence(in))
}

func TestCanonicalSequence(t *testing.T) {
	assert.Equal(t, "N->[Cu]<-N", CanonicalSequence(normalized(t, diammineCopper())))
	assert.Equal(t, "CCO", CanonicalSequence(normalized(t, ethanol())))
	assert.Equal(t, "c1ccncc1", CanonicalSequence(normalized(t, pyridine())))
}

func TestCanonicalSequence_RenumberingInvariance(t *testing.T) {
	a := normalized(t, copperEnAqua())
	b := normalized(t, v2000(
		[]string{"O", "Cu", "N", "C", "C", "N"},
		[][3]int{{1, 2, 1}, {2, 3, 1}, {3, 4, 1}, {4, 5, 1}, {5, 6, 1}, {6, 2, 1}},
		"M  CHG  1   2   2",
	))
	assert.Equal(t, CanonicalSequence(a), CanonicalSequence(b))
}
