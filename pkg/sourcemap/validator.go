package sourcemap

import (
	"fmt"
	"os"
)

// ValidationResult is the outcome of validating a SourceMap for internal
// consistency and round-trip accuracy.
type ValidationResult struct {
	Valid          bool
	Errors         []ValidationError
	Warnings       []ValidationWarning
	TotalMappings  int
	RoundTripTests int
	PassedTests    int
	Accuracy       float64 // percentage, 0-100
}

type ValidationError struct {
	Type    string
	Message string
	Line    int
	Column  int
}

type ValidationWarning struct {
	Type    string
	Message string
}

// Validator checks a SourceMap's schema, individual mappings, and
// round-trip stability between its generated and original coordinates.
type Validator struct {
	sourceMap *SourceMap
	strict    bool
}

func NewValidator(sm *SourceMap) *Validator {
	return &Validator{sourceMap: sm}
}

// NewValidatorFromFile loads a SourceMap from a JSON file and wraps it.
func NewValidatorFromFile(path string) (*Validator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sourcemap: read %s: %w", path, err)
	}
	sm, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	return &Validator{sourceMap: sm}, nil
}

// SetStrict makes warnings count as errors.
func (v *Validator) SetStrict(strict bool) {
	v.strict = strict
}

// Validate runs all checks and summarizes the result.
func (v *Validator) Validate() ValidationResult {
	result := ValidationResult{
		Valid:         true,
		TotalMappings: len(v.sourceMap.Mappings),
	}

	v.validateSchema(&result)
	v.validateMappings(&result)
	v.validateRoundTrip(&result)
	v.validateConsistency(&result)

	if result.RoundTripTests > 0 {
		result.Accuracy = float64(result.PassedTests) / float64(result.RoundTripTests) * 100.0
	}

	if v.strict && len(result.Warnings) > 0 {
		for _, w := range result.Warnings {
			result.Errors = append(result.Errors, ValidationError{Type: w.Type, Message: w.Message})
		}
		result.Warnings = nil
	}
	if len(result.Errors) > 0 {
		result.Valid = false
	}
	return result
}

func (v *Validator) validateSchema(result *ValidationResult) {
	if v.sourceMap.Version != 1 {
		result.Errors = append(result.Errors, ValidationError{
			Type:    "schema",
			Message: fmt.Sprintf("unsupported version %d (expected 1)", v.sourceMap.Version),
		})
	}
	if v.sourceMap.GeneratedFile == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Type:    "schema",
			Message: "missing generated_file field (optional but recommended for debugging)",
		})
	}
	if v.sourceMap.Mappings == nil {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Type:    "schema",
			Message: "mappings array is empty",
		})
	}
}

func (v *Validator) validateMappings(result *ValidationResult) {
	for i, m := range v.sourceMap.Mappings {
		if m.GeneratedLine < 1 {
			result.Errors = append(result.Errors, ValidationError{
				Type:    "mapping",
				Message: fmt.Sprintf("mapping %d: invalid generated_line %d (must be >= 1)", i, m.GeneratedLine),
			})
		}
		if m.OriginalLine < 1 {
			result.Errors = append(result.Errors, ValidationError{
				Type:    "mapping",
				Message: fmt.Sprintf("mapping %d: invalid original_line %d (must be >= 1)", i, m.OriginalLine),
			})
		}
		if m.OriginalFile == "" {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Type:    "mapping",
				Message: fmt.Sprintf("mapping %d: missing original_file", i),
			})
		}
	}
}

// validateRoundTrip checks that every mapping's original position maps
// forward to a generated line that maps back to the same original
// position.
func (v *Validator) validateRoundTrip(result *ValidationResult) {
	for i, m := range v.sourceMap.Mappings {
		result.RoundTripTests++

		genLine, genCol, ok := v.sourceMap.MapToGenerated(m.OriginalFile, m.OriginalLine, m.OriginalColumn)
		if !ok {
			result.Errors = append(result.Errors, ValidationError{
				Type:    "round-trip",
				Message: fmt.Sprintf("mapping %d: no forward mapping for %s:%d", i, m.OriginalFile, m.OriginalLine),
				Line:    m.OriginalLine,
			})
			continue
		}

		origin, ok := v.sourceMap.MapToOriginal(genLine, genCol)
		if !ok || origin.Line != m.OriginalLine || origin.File != m.OriginalFile {
			result.Errors = append(result.Errors, ValidationError{
				Type: "round-trip",
				Message: fmt.Sprintf(
					"mapping %d: round-trip failed: original %s:%d -> generated %d -> %s:%d",
					i, m.OriginalFile, m.OriginalLine, genLine, origin.File, origin.Line,
				),
				Line: m.OriginalLine,
			})
			continue
		}
		result.PassedTests++
	}
}

func (v *Validator) validateConsistency(result *ValidationResult) {
	if len(v.sourceMap.Mappings) == 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Type:    "consistency",
			Message: "source map has no mappings",
		})
		return
	}
	seen := make(map[int]bool)
	for i, m := range v.sourceMap.Mappings {
		if seen[m.GeneratedLine] {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Type:    "consistency",
				Message: fmt.Sprintf("mapping %d: duplicate generated_line %d", i, m.GeneratedLine),
			})
		}
		seen[m.GeneratedLine] = true
	}
}

// String renders the result for human consumption (e.g. a `validate`
// diagnostic subcommand).
func (r ValidationResult) String() string {
	s := "INVALID\n"
	if r.Valid {
		s = "VALID\n"
	}
	s += fmt.Sprintf("mappings=%d round_trip=%d/%d accuracy=%.2f%%\n",
		r.TotalMappings, r.PassedTests, r.RoundTripTests, r.Accuracy)
	for _, e := range r.Errors {
		s += fmt.Sprintf("  error[%s] %s\n", e.Type, e.Message)
	}
	for _, w := range r.Warnings {
		s += fmt.Sprintf("  warning[%s] %s\n", w.Type, w.Message)
	}
	return s
}
