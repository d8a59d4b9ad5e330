package lesson

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prmpt-academy/prmpt-api/internal/grading"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		gt      grading.GameType
		raw     string
		wantErr bool
	}{
		{"exact minimal", grading.GameExactMatch, `{"expected":"hi"}`, false},
		{"exact missing expected", grading.GameExactMatch, `{}`, true},
		{"exact bad match type", grading.GameExactMatch, `{"expected":"hi","match_type":"fuzzy"}`, true},
		{"exact extra field", grading.GameExactMatch, `{"expected":"hi","hint":"x"}`, true},
		{"exact regex ok", grading.GameExactMatch, `{"expected":"^a+$","match_type":"regex"}`, false},
		{"exact regex broken", grading.GameExactMatch, `{"expected":"(a","match_type":"regex"}`, true},
		{"blank ok", grading.GameFillBlank, `{"template":"a {{blank}} c","answers":["b"]}`, false},
		{"blank count mismatch", grading.GameFillBlank, `{"template":"a {{blank}} c","answers":["b","d"]}`, true},
		{"blank no answers", grading.GameFillBlank, `{"template":"","answers":[]}`, true},
		{"blank answers wrong type", grading.GameFillBlank, `{"template":"","answers":[1]}`, true},
		{"choice ok", grading.GameMultipleChoice, `{"question":"q","options":["a","b"],"correct":[0]}`, false},
		{"choice out of range", grading.GameMultipleChoice, `{"question":"q","options":["a","b"],"correct":[2]}`, true},
		{"choice negative", grading.GameMultipleChoice, `{"question":"q","options":["a","b"],"correct":[-1]}`, true},
		{"choice multi required", grading.GameMultipleChoice, `{"question":"q","options":["a","b"],"correct":[0,1]}`, true},
		{"choice multi", grading.GameMultipleChoice, `{"question":"q","options":["a","b"],"correct":[0,1],"multi":true}`, false},
		{"reorder ok", grading.GameReorder, `{"items":["a","b","c"],"correct_order":[2,0,1]}`, false},
		{"reorder not permutation", grading.GameReorder, `{"items":["a","b","c"],"correct_order":[0,0,1]}`, true},
		{"reorder length", grading.GameReorder, `{"items":["a","b","c"],"correct_order":[0,1]}`, true},
		{"not an object", grading.GameReorder, `[1,2]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ValidateConfig(tt.gt, json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.gt, cfg.GameType())
		})
	}
}

func TestValidateConfig_UnknownGameType(t *testing.T) {
	_, err := ValidateConfig("llm", json.RawMessage(`{}`))
	assert.ErrorIs(t, err, ErrUnknownGameType)
}

func TestCatalogueCoversKnownGameTypes(t *testing.T) {
	require.Len(t, Catalogue, len(grading.KnownGameTypes))
	for i, info := range Catalogue {
		assert.Equal(t, grading.KnownGameTypes[i], info.ID)
		assert.NotEmpty(t, info.ConfigSchema)
	}
}
