package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melonguard/melonguard-go/internal/diagnosis"
)

const testTTL = time.Minute

func TestCell_SetGetClear(t *testing.T) {
	cell := NewCell()

	_, ok := cell.Get()
	assert.False(t, ok)

	cell.Set(diagnosis.Result{Diseases: []string{"Downy_Mildew (80.0%)"}})
	got, ok := cell.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"Downy_Mildew (80.0%)"}, got.Diseases)

	// Each set overwrites the previous value.
	cell.Set(diagnosis.Result{Diseases: []string{diagnosis.HealthyLabel}})
	got, ok = cell.Get()
	require.True(t, ok)
	assert.Equal(t, []string{diagnosis.HealthyLabel}, got.Diseases)

	cell.Clear()
	_, ok = cell.Get()
	assert.False(t, ok)
}

func TestRegistry_PerSessionControllers(t *testing.T) {
	registry := NewRegistry(&fakeEngine{}, 0.5, testTTL)

	a := registry.Get("session-a")
	b := registry.Get("session-b")
	assert.NotSame(t, a, b, "sessions must not share state")
	assert.Same(t, a, registry.Get("session-a"))

	registry.Drop("session-a")
	assert.NotSame(t, a, registry.Get("session-a"))
}
