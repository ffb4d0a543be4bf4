package usecase

import (
	"math/rand"

	"avatar-interview/internal/domain"
)

// MaxQuestions caps the number of questions served per request.
const MaxQuestions = 10

// Sampler draws a random subset of questions without replacement.
type Sampler struct {
	limit   int
	shuffle func(n int, swap func(i, j int))
}

// NewSampler returns a Sampler capped at MaxQuestions that shuffles with the
// runtime-seeded global generator.
func NewSampler() Sampler {
	return Sampler{limit: MaxQuestions, shuffle: rand.Shuffle}
}

// Sample returns a uniformly random permutation of questions truncated to the
// sampler's limit. Truncation happens after the shuffle so every question is
// equally likely to be picked. The input slice is left untouched.
func (s Sampler) Sample(questions []domain.Dialog) []domain.Dialog {
	out := make([]domain.Dialog, len(questions))
	copy(out, questions)

	shuffle := s.shuffle
	if shuffle == nil {
		shuffle = rand.Shuffle
	}
	shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	limit := s.limit
	if limit <= 0 {
		limit = MaxQuestions
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
