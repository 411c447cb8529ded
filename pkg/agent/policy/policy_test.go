package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/webpilot/pkg/tools"
)

func newTestPolicy(t *testing.T) *Policy {
	t.Helper()
	p, err := New(
		[]string{"submit_form", "confirm_payment", "delete_message"},
		[]string{"delete_*", "submit_*", "*payment*"},
	)
	require.NoError(t, err)
	return p
}

func TestNewRejectsMalformedPattern(t *testing.T) {
	_, err := New(nil, []string{"[unclosed"})
	assert.ErrorContains(t, err, "invalid validate pattern")
}

func TestIsCritical(t *testing.T) {
	p := newTestPolicy(t)

	assert.True(t, p.IsCritical("submit_form"))
	assert.True(t, p.IsCritical("confirm_payment"))
	assert.False(t, p.IsCritical("submit_search"))
	assert.False(t, p.IsCritical("click"))
}

func TestIsCandidate(t *testing.T) {
	p := newTestPolicy(t)

	tests := []struct {
		name   string
		action string
		want   bool
	}{
		{"pattern match", "delete_row", true},
		{"infix pattern match", "retry_payment_flow", true},
		{"critical is always candidate", "confirm_payment", true},
		{"benign action", "extract_content", false},
		{"navigation", "navigate", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.IsCandidate(tt.action))
		})
	}
}

func TestScreen(t *testing.T) {
	p := newTestPolicy(t)

	t.Run("benign batch", func(t *testing.T) {
		needsValidation, critical := p.Screen([]tools.Action{
			{Name: "navigate"}, {Name: "extract_content"},
		})
		assert.False(t, needsValidation)
		assert.False(t, critical)
	})

	t.Run("candidate without critical", func(t *testing.T) {
		needsValidation, critical := p.Screen([]tools.Action{
			{Name: "click"}, {Name: "submit_search"},
		})
		assert.True(t, needsValidation)
		assert.False(t, critical)
	})

	t.Run("critical member flags both", func(t *testing.T) {
		needsValidation, critical := p.Screen([]tools.Action{
			{Name: "fill"}, {Name: "submit_form"},
		})
		assert.True(t, needsValidation)
		assert.True(t, critical)
	})

	t.Run("empty batch", func(t *testing.T) {
		needsValidation, critical := p.Screen(nil)
		assert.False(t, needsValidation)
		assert.False(t, critical)
	})
}

func TestCriticalIn(t *testing.T) {
	p := newTestPolicy(t)

	batch := []tools.Action{
		{ID: "a1", Name: "fill"},
		{ID: "a2", Name: "submit_form"},
		{ID: "a3", Name: "delete_message"},
	}
	critical := p.CriticalIn(batch)
	require.Len(t, critical, 2)
	assert.Equal(t, "a2", critical[0].ID)
	assert.Equal(t, "a3", critical[1].ID)

	assert.Empty(t, p.CriticalIn([]tools.Action{{Name: "click"}}))
}
