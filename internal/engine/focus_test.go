package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFocusGuardInactiveByDefault(t *testing.T) {
	g := &FocusGuard{}
	assert.False(t, g.Active())
	assert.False(t, g.BlocksEvent("copy"))
	assert.False(t, g.BlocksShortcut(true, "c"))
}

func TestFocusGuardBlocksEventsOnlyWhileActive(t *testing.T) {
	g := &FocusGuard{}
	g.Engage()

	for _, ev := range []string{"copy", "cut", "contextmenu", "dragstart", "selectstart"} {
		assert.True(t, g.BlocksEvent(ev), ev)
	}
	assert.True(t, g.BlocksEvent("COPY"), "event matching is case-insensitive")
	assert.False(t, g.BlocksEvent("paste"))
	assert.False(t, g.BlocksEvent("keydown"))

	g.Release()
	assert.False(t, g.BlocksEvent("copy"), "released guard must not leak into view mode")
}

func TestFocusGuardShortcuts(t *testing.T) {
	g := &FocusGuard{}
	g.Engage()

	assert.True(t, g.BlocksShortcut(true, "c"))
	assert.True(t, g.BlocksShortcut(true, "X"))
	assert.True(t, g.BlocksShortcut(true, "a"))
	assert.False(t, g.BlocksShortcut(true, "v"), "paste combo is not suppressed")
	assert.False(t, g.BlocksShortcut(false, "c"), "plain keys are never suppressed")
}

func TestFocusGuardSuppressedEventsCopy(t *testing.T) {
	g := &FocusGuard{}
	events := g.SuppressedEvents()
	assert.Equal(t, []string{"copy", "cut", "contextmenu", "dragstart", "selectstart"}, events)

	// 返回的是副本，调用方改动不影响内部清单
	events[0] = "mutated"
	assert.Equal(t, "copy", g.SuppressedEvents()[0])
}
