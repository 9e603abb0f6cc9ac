// Package worker runs TacnaVial background jobs: it keeps the geocoding cache
// warm for well-known places and consumes the domain event stream.
package worker

import (
	"sort"
	"strings"
	"time"
)

// WarmTarget is a group of addresses warmed together.
type WarmTarget struct {
	// Name is the human-readable name of the group.
	Name string

	// Addresses are free-text addresses as riders type them.
	Addresses []string

	// Priority determines warm order (lower = higher priority).
	Priority int
}

// WarmConfig holds configuration for the geocode warm job.
type WarmConfig struct {
	// Targets defaults to DefaultWarmTargets.
	Targets []WarmTarget
	// Concurrency is the number of parallel lookups (default 3).
	Concurrency int
	// Timeout bounds each lookup (default 10s).
	Timeout time.Duration
}

// DefaultWarmTargets returns the places in Tacna riders most often plan
// routes from or to.
func DefaultWarmTargets() []WarmTarget {
	return []WarmTarget{
		{
			Name:     "Centro",
			Priority: 1,
			Addresses: []string{
				"Plaza de Armas, Tacna",
				"Paseo Cívico, Tacna",
				"Av. Bolognesi, Tacna",
				"Av. San Martín, Tacna",
			},
		},
		{
			Name:     "Terminales",
			Priority: 1,
			Addresses: []string{
				"Terminal Terrestre Collasuyo, Tacna",
				"Terminal Terrestre Manuel A. Odría, Tacna",
				"Terminal Internacional, Tacna",
			},
		},
		{
			Name:     "Salud",
			Priority: 2,
			Addresses: []string{
				"Hospital Hipólito Unanue, Tacna",
				"EsSalud Daniel Alcides Carrión, Tacna",
			},
		},
		{
			Name:     "Educación",
			Priority: 2,
			Addresses: []string{
				"Universidad Nacional Jorge Basadre Grohmann, Tacna",
				"Universidad Privada de Tacna",
			},
		},
		{
			Name:     "Mercados",
			Priority: 3,
			Addresses: []string{
				"Mercado Central, Tacna",
				"Mercado Grau, Tacna",
				"Óvalo Cusco, Tacna",
			},
		},
	}
}

// TargetsFromAddresses wraps a flat address list, as configured through
// worker.warm_addresses, into a single target.
func TargetsFromAddresses(addresses []string) []WarmTarget {
	if len(addresses) == 0 {
		return nil
	}
	return []WarmTarget{{Name: "configured", Priority: 1, Addresses: addresses}}
}

// AllAddresses returns every address ordered by target priority, trimmed and
// without duplicates.
func (c WarmConfig) AllAddresses() []string {
	targets := append([]WarmTarget(nil), c.Targets...)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Priority < targets[j].Priority })

	seen := make(map[string]bool)
	var out []string
	for _, target := range targets {
		for _, a := range target.Addresses {
			a = strings.TrimSpace(a)
			key := strings.ToLower(a)
			if a == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, a)
		}
	}
	return out
}
