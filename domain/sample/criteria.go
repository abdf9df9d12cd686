package sample

import (
	"fmt"

	"neuromatch/domain/core"
)

// MatchingCriteria defines one matching request. It is built once per
// request by the caller (API, CLI), read-only during the match, and
// discarded afterward.
type MatchingCriteria struct {
	Diagnosis        string   `json:"diagnosis"`
	NPerGroup        int      `json:"n_per_group"`
	IncludeControls  bool     `json:"include_controls"`
	ControlRatio     int      `json:"control_ratio"`
	MatchAge         bool     `json:"match_age"`
	AgeMin           *int     `json:"age_min,omitempty"`
	AgeMax           *int     `json:"age_max,omitempty"`
	BrainRegion      string   `json:"brain_region,omitempty"`
	MinRINScore      *float64 `json:"min_rin_score,omitempty"`
	MaxPMIHours      *float64 `json:"max_pmi_hours,omitempty"`
	ExcludePathology bool     `json:"exclude_pathology"`
	ExactSexMatch    bool     `json:"exact_sex_match"`
}

// DefaultCriteria returns criteria with the recommended defaults:
// 1:1 case:control ratio, exact sex matching, control pathology exclusion.
func DefaultCriteria(diagnosis string, nPerGroup int) MatchingCriteria {
	return MatchingCriteria{
		Diagnosis:        diagnosis,
		NPerGroup:        nPerGroup,
		IncludeControls:  true,
		ControlRatio:     1,
		MatchAge:         true,
		ExcludePathology: true,
		ExactSexMatch:    true,
	}
}

// Validate checks structural validity of the request. Malformed caller
// input is the one hard-error path in this subsystem; every domain
// failure downstream is reported as data inside a MatchResult instead.
func (mc *MatchingCriteria) Validate() error {
	if mc.NPerGroup <= 0 {
		return fmt.Errorf("%w: n_per_group must be positive, got %d", core.ErrInvalidCriteria, mc.NPerGroup)
	}
	if mc.IncludeControls && mc.ControlRatio <= 0 {
		return fmt.Errorf("%w: control_ratio must be positive, got %d", core.ErrInvalidCriteria, mc.ControlRatio)
	}
	if mc.AgeMin != nil && mc.AgeMax != nil && *mc.AgeMin > *mc.AgeMax {
		return fmt.Errorf("%w: age_min %d exceeds age_max %d", core.ErrInvalidCriteria, *mc.AgeMin, *mc.AgeMax)
	}
	if mc.MinRINScore != nil && (*mc.MinRINScore < 0 || *mc.MinRINScore > 10) {
		return fmt.Errorf("%w: min_rin_score must be within [0,10], got %g", core.ErrInvalidCriteria, *mc.MinRINScore)
	}
	if mc.MaxPMIHours != nil && *mc.MaxPMIHours < 0 {
		return fmt.Errorf("%w: max_pmi_hours must be non-negative, got %g", core.ErrInvalidCriteria, *mc.MaxPMIHours)
	}
	return nil
}
