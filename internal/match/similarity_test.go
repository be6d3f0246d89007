package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "abc", "abc", 1.0},
		{"empty left", "", "x", 0},
		{"empty right", "x", "", 0},
		{"both empty", "", "", 0},
		{"subsequence", "abcdef", "abc", 0.5},
		{"case insensitive", "ABC", "abc", 1.0},
		{"cjk identical", "晴天", "晴天", 1.0},
		{"disjoint", "abc", "xyz", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Score(tt.a, tt.b), 1e-9)
		})
	}
}

func TestScoreSymmetry(t *testing.T) {
	// The formula divides by max(len), so argument order must not matter.
	assert.InDelta(t, Score("abcdef", "abc"), Score("abc", "abcdef"), 1e-9)
}

func TestStripBrackets(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"【官方MV】晴天", "晴天"},
		{"晴天 [Official Video]", "晴天"},
		{"晴天 (Live 2004)", "晴天"},
		{"「晴天」周杰伦", "周杰伦"},
		{"『晴天』", ""},
		{"no brackets", "no brackets"},
	}
	for _, tt := range tests {
		if got := StripBrackets(tt.in); got != tt.expected {
			t.Errorf("StripBrackets(%q) = %q; want %q", tt.in, got, tt.expected)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"【官方投稿】晴天 Official MV", "晴天"},
		{"周杰伦 - 晴天 | Official", "周杰伦 晴天"},
		{"晴天 feat. 某人", "晴天 某人"},
		{"晴天/周杰伦", "晴天 周杰伦"},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.expected {
			t.Errorf("CleanTitle(%q) = %q; want %q", tt.in, got, tt.expected)
		}
	}
}

func TestCalculateSimilarity(t *testing.T) {
	t.Run("matching title survives cutoff", func(t *testing.T) {
		score := CalculateSimilarity("Official MV 周杰伦 - 晴天", "晴天", "周杰伦")
		assert.GreaterOrEqual(t, score, 0.5)
	})

	t.Run("unrelated title drops below cutoff", func(t *testing.T) {
		score := CalculateSimilarity("Totally Unrelated Song", "晴天", "周杰伦")
		assert.Less(t, score, 0.5)
	})

	t.Run("title containment floors at 0.8", func(t *testing.T) {
		score := CalculateSimilarity("前奏加长版晴天现场", "晴天", "")
		assert.GreaterOrEqual(t, score, 0.8)
	})

	t.Run("artist containment floors at 0.7", func(t *testing.T) {
		// Uploader account names often carry an "official" suffix.
		score := CalculateSimilarity("周杰伦 演唱会片段", "不存在的歌", "周杰伦Official")
		assert.InDelta(t, 0.7, score, 1e-9)
	})

	t.Run("clamped at 1.0", func(t *testing.T) {
		score := CalculateSimilarity("晴天", "晴天", "晴天")
		assert.LessOrEqual(t, score, 1.0)
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Equal(t, 0.0, CalculateSimilarity("", "", ""))
	})
}
