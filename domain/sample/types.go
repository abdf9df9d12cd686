package sample

import "strings"

// Sex is a closed enumeration for the stratification variable.
// Sourcing adapters must normalize raw labels before constructing a
// CandidateSample; unrecognized labels collapse to SexUnknown rather
// than leaking free-form strings into the matching engine.
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// NormalizeSex maps raw repository labels onto the Sex enumeration.
func NormalizeSex(raw string) Sex {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "m", "male":
		return SexMale
	case "f", "female":
		return SexFemale
	default:
		return SexUnknown
	}
}

// CandidateSample is a single tissue/donor record available for matching.
// Age, PMI and RIN are optional: a candidate missing any of them is not
// comparable and never enters selection. The engine treats candidates as
// immutable and only builds new lists of references into the caller's pool.
type CandidateSample struct {
	ID         string   `json:"id" db:"id"`
	Age        *int     `json:"age,omitempty" db:"age"`
	PMIHours   *float64 `json:"pmi_hours,omitempty" db:"pmi_hours"`
	RINScore   *float64 `json:"rin_score,omitempty" db:"rin_score"`
	Sex        Sex      `json:"sex" db:"sex"`
	Diagnosis  string   `json:"diagnosis,omitempty" db:"diagnosis"`
	Source     string   `json:"source,omitempty" db:"source"`
	BrainRegion string  `json:"brain_region,omitempty" db:"brain_region"`
	ExternalID string   `json:"external_id,omitempty" db:"external_id"`
}

// IsValid reports whether all three matching covariates are present.
// Only valid candidates may enter matching.
func (c *CandidateSample) IsValid() bool {
	return c != nil && c.Age != nil && c.PMIHours != nil && c.RINScore != nil
}

// Covariate identifies one of the three continuous matching covariates.
type Covariate string

const (
	CovariateAge Covariate = "age"
	CovariatePMI Covariate = "pmi"
	CovariateRIN Covariate = "rin"
)

// Covariates lists the covariates in their canonical reporting order.
var Covariates = []Covariate{CovariateAge, CovariatePMI, CovariateRIN}

// Value returns the candidate's value for the given covariate, with ok
// false when the covariate is missing.
func (c *CandidateSample) Value(cov Covariate) (float64, bool) {
	switch cov {
	case CovariateAge:
		if c.Age != nil {
			return float64(*c.Age), true
		}
	case CovariatePMI:
		if c.PMIHours != nil {
			return *c.PMIHours, true
		}
	case CovariateRIN:
		if c.RINScore != nil {
			return *c.RINScore, true
		}
	}
	return 0, false
}

// FilterValid returns the subset of candidates with all covariates present.
// The returned slice is freshly allocated; the input is never mutated.
func FilterValid(pool []*CandidateSample) []*CandidateSample {
	valid := make([]*CandidateSample, 0, len(pool))
	for _, c := range pool {
		if c.IsValid() {
			valid = append(valid, c)
		}
	}
	return valid
}

// PartitionBySex groups candidates by their sex label. Missing or
// unrecognized labels land in the SexUnknown bucket.
func PartitionBySex(pool []*CandidateSample) map[Sex][]*CandidateSample {
	groups := make(map[Sex][]*CandidateSample)
	for _, c := range pool {
		sex := c.Sex
		if sex != SexMale && sex != SexFemale {
			sex = SexUnknown
		}
		groups[sex] = append(groups[sex], c)
	}
	return groups
}
