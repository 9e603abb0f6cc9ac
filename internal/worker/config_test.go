package worker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacnavial/tacnavial/internal/worker"
)

func TestDefaultWarmTargets(t *testing.T) {
	targets := worker.DefaultWarmTargets()
	assert.GreaterOrEqual(t, len(targets), 3)

	var centro *worker.WarmTarget
	for i := range targets {
		if targets[i].Name == "Centro" {
			centro = &targets[i]
			break
		}
	}
	require.NotNil(t, centro, "Centro should be in targets")
	assert.Equal(t, 1, centro.Priority)
	assert.Contains(t, centro.Addresses, "Plaza de Armas, Tacna")
}

func TestWarmConfig_AllAddresses(t *testing.T) {
	cfg := worker.WarmConfig{
		Targets: []worker.WarmTarget{
			{Name: "late", Priority: 3, Addresses: []string{"Mercado Grau"}},
			{Name: "early", Priority: 1, Addresses: []string{"Plaza de Armas", " ", "plaza de armas", "Av. Bolognesi "}},
		},
	}

	assert.Equal(t, []string{"Plaza de Armas", "Av. Bolognesi", "Mercado Grau"}, cfg.AllAddresses())
}

func TestTargetsFromAddresses(t *testing.T) {
	assert.Nil(t, worker.TargetsFromAddresses(nil))

	targets := worker.TargetsFromAddresses([]string{"a", "b"})
	require.Len(t, targets, 1)
	assert.Equal(t, []string{"a", "b"}, targets[0].Addresses)
}
