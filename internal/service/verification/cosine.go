package verification

import (
	"context"
	"math"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/verification"
)

// CosineVerifier scores two embeddings by cosine similarity.
type CosineVerifier struct {
	Threshold float64
}

func NewCosineVerifier() *CosineVerifier {
	return &CosineVerifier{Threshold: verification.AcceptanceThreshold}
}

func (v *CosineVerifier) Verify(_ context.Context, sample, stored []float64) (verification.IdentityResult, error) {
	score := cosine(sample, stored)
	return verification.IdentityResult{Verified: score >= v.Threshold, Score: score}, nil
}

func cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	// rounding can push identical vectors just past 1
	return math.Max(-1, math.Min(1, dot/(math.Sqrt(na)*math.Sqrt(nb))))
}
