package sourcemap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braceless-cpp/blcc/pkg/sourcemap"
)

func validSourceMap() *sourcemap.SourceMap {
	return &sourcemap.SourceMap{
		Version:       1,
		GeneratedFile: "out.cpp",
		Mappings: []sourcemap.Mapping{
			{GeneratedLine: 1, OriginalFile: "a.bl", OriginalLine: 1},
			{GeneratedLine: 2, OriginalFile: "a.bl", OriginalLine: 2},
		},
	}
}

func TestValidatorAcceptsWellFormedMap(t *testing.T) {
	v := sourcemap.NewValidator(validSourceMap())
	result := v.Validate()
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 100.0, result.Accuracy)
}

func TestValidatorRejectsBadVersion(t *testing.T) {
	sm := validSourceMap()
	sm.Version = 2
	v := sourcemap.NewValidator(sm)
	result := v.Validate()
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "schema", result.Errors[0].Type)
}

func TestValidatorRejectsInvalidLineNumbers(t *testing.T) {
	sm := &sourcemap.SourceMap{
		Version: 1,
		Mappings: []sourcemap.Mapping{
			{GeneratedLine: 0, OriginalFile: "a.bl", OriginalLine: 1},
		},
	}
	v := sourcemap.NewValidator(sm)
	result := v.Validate()
	assert.False(t, result.Valid)
}

func TestValidatorWarnsOnDuplicateGeneratedLine(t *testing.T) {
	// Two different original lines claiming the same generated line is
	// both a consistency warning and, correctly, a round-trip failure:
	// the second mapping's original position is unrecoverable from the
	// generated line alone.
	sm := &sourcemap.SourceMap{
		Version: 1,
		Mappings: []sourcemap.Mapping{
			{GeneratedLine: 1, OriginalFile: "a.bl", OriginalLine: 1},
			{GeneratedLine: 1, OriginalFile: "a.bl", OriginalLine: 2},
		},
	}
	v := sourcemap.NewValidator(sm)
	result := v.Validate()
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Warnings)
	found := false
	for _, w := range result.Warnings {
		if w.Type == "consistency" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidatorStrictPromotesWarningsToErrors(t *testing.T) {
	sm := &sourcemap.SourceMap{Version: 1} // empty mappings triggers a warning
	v := sourcemap.NewValidator(sm)
	v.SetStrict(true)
	result := v.Validate()
	assert.False(t, result.Valid)
	assert.Empty(t, result.Warnings)
	assert.NotEmpty(t, result.Errors)
}
