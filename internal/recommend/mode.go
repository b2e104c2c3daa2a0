package recommend

import (
	"fmt"
	"strings"
)

// Mode selects how a recommendation request reshapes the pipeline.
type Mode string

const (
	ModeDefault    Mode = "default"
	ModeRegenerate Mode = "regenerate"
	ModeTighten    Mode = "tighten"
	ModeBroaden    Mode = "broaden"
)

type modePolicy struct {
	picks        int
	poolCap      int
	offsetStep   int
	forceAugment bool
}

var modePolicies = map[Mode]modePolicy{
	ModeDefault:    {picks: 3, poolCap: 18},
	ModeRegenerate: {picks: 3, poolCap: 18, offsetStep: 3},
	ModeTighten:    {picks: 2, poolCap: 12},
	ModeBroaden:    {picks: 3, poolCap: 18, forceAugment: true},
}

// ParseMode accepts "" as the default mode.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeDefault, nil
	}
	if _, ok := modePolicies[m]; !ok {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

func (m Mode) policy() modePolicy {
	if p, ok := modePolicies[m]; ok {
		return p
	}
	return modePolicies[ModeDefault]
}

// offset returns the rotation applied to the pool and the offset the caller
// should send back on the next regenerate.
func (pol modePolicy) offset(requested, poolSize int) int {
	if pol.offsetStep == 0 || poolSize == 0 {
		return 0
	}
	if requested < 0 {
		requested = 0
	}
	return (requested + pol.offsetStep) % poolSize
}
