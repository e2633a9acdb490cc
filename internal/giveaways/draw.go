package giveaways

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// ErrNoCandidates is returned when nobody holds points in the giveaway.
var ErrNoCandidates = errors.New("no candidates with points")

// Candidate is a user eligible for the draw, weighted by Points.
type Candidate struct {
	UserID      int64
	Email       string
	FirstName   string
	LastName    string
	PhoneNumber string
	Points      int
}

// RandInt returns a uniform value in [0, n).
type RandInt func(n int64) (int64, error)

// CryptoRandInt draws from crypto/rand.
func CryptoRandInt(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// Draw picks one candidate with probability proportional to its points.
// Candidates with no points are never chosen.
func Draw(candidates []Candidate, rnd RandInt) (Candidate, error) {
	var total int64
	for _, c := range candidates {
		if c.Points > 0 {
			total += int64(c.Points)
		}
	}
	if total == 0 {
		return Candidate{}, ErrNoCandidates
	}
	ticket, err := rnd(total)
	if err != nil {
		return Candidate{}, err
	}
	for _, c := range candidates {
		if c.Points <= 0 {
			continue
		}
		if ticket < int64(c.Points) {
			return c, nil
		}
		ticket -= int64(c.Points)
	}
	return Candidate{}, ErrNoCandidates
}
