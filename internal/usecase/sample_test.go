package usecase

import (
	"testing"

	"github.com/stretchr/testify/require"

	"avatar-interview/internal/domain"
)

func texts(qs []domain.Dialog) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.Text
	}
	return out
}

func TestSample_SmallSetIsPermutation(t *testing.T) {
	for n := 0; n <= MaxQuestions; n++ {
		in := makeQuestions(n)
		out := NewSampler().Sample(in)
		require.Len(t, out, n)
		require.ElementsMatch(t, texts(in), texts(out))
	}
}

func TestSample_LargeSetTruncatesWithoutDuplicates(t *testing.T) {
	in := makeQuestions(37)
	for i := 0; i < 50; i++ {
		out := NewSampler().Sample(in)
		require.Len(t, out, MaxQuestions)

		seen := map[string]bool{}
		for _, q := range out {
			require.False(t, seen[q.Text], "duplicate %q", q.Text)
			seen[q.Text] = true
			require.Contains(t, texts(in), q.Text)
		}
	}
}

func TestSample_DoesNotMutateInput(t *testing.T) {
	in := makeQuestions(12)
	before := texts(in)
	_ = NewSampler().Sample(in)
	require.Equal(t, before, texts(in))
}

func TestSample_ShufflesBeforeTruncating(t *testing.T) {
	in := makeQuestions(12)
	reverse := func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}
	out := Sampler{limit: MaxQuestions, shuffle: reverse}.Sample(in)
	require.Len(t, out, MaxQuestions)
	require.Equal(t, "Q11", out[0].Text)
	require.Equal(t, "Q2", out[9].Text)
}

// Every question should be picked close to limit/N of the time.
func TestSample_InclusionIsUniform(t *testing.T) {
	const (
		n      = 20
		rounds = 20000
	)
	in := makeQuestions(n)
	counts := map[string]int{}
	for i := 0; i < rounds; i++ {
		for _, q := range NewSampler().Sample(in) {
			counts[q.Text]++
		}
	}

	expected := float64(rounds*MaxQuestions) / n
	for _, q := range in {
		got := float64(counts[q.Text])
		require.InDelta(t, expected, got, expected*0.05, "question %s", q.Text)
	}
}

func TestSample_FirstPositionIsUniform(t *testing.T) {
	const rounds = 30000
	in := makeQuestions(3)
	counts := map[string]int{}
	for i := 0; i < rounds; i++ {
		counts[NewSampler().Sample(in)[0].Text]++
	}
	for _, q := range in {
		require.InDelta(t, rounds/3, counts[q.Text], rounds*0.03, "question %s", q.Text)
	}
}
