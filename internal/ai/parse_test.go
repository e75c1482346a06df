package ai

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	v := validator.New()

	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{
			name: "plain json",
			text: `{"disease":"Rust","confidence":87.5,"description":"Orange pustules","treatment":"Sulphur spray"}`,
		},
		{
			name: "fenced json",
			text: "```json\n{\"disease\":\"Rust\",\"confidence\":87.5,\"description\":\"d\",\"treatment\":\"t\"}\n```",
		},
		{
			name: "bare fence",
			text: "```\n{\"disease\":\"Rust\",\"confidence\":1,\"description\":\"d\",\"treatment\":\"t\"}\n```",
		},
		{
			name:    "prose around json",
			text:    `Here you go: {"disease":"Rust","confidence":87.5,"description":"d","treatment":"t"}`,
			wantErr: true,
		},
		{
			name:    "trailing text",
			text:    `{"disease":"Rust","confidence":87.5,"description":"d","treatment":"t"} hope this helps`,
			wantErr: true,
		},
		{
			name:    "unknown field",
			text:    `{"disease":"Rust","confidence":87.5,"description":"d","treatment":"t","severity":"high"}`,
			wantErr: true,
		},
		{
			name:    "schema violation",
			text:    `{"disease":"Rust","confidence":140,"description":"d","treatment":"t"}`,
			wantErr: true,
		},
		{
			name:    "missing required",
			text:    `{"confidence":10,"description":"d","treatment":"t"}`,
			wantErr: true,
		},
		{
			name:    "unterminated fence",
			text:    "```json\n{\"disease\":\"Rust\"}",
			wantErr: true,
		},
		{
			name:    "empty",
			text:    "   ",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got DiseaseDiagnosis
			err := Decode(tt.text, &got, v)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Rust", got.Disease)
		})
	}
}

func TestDecode_NestedValidation(t *testing.T) {
	v := validator.New()

	var forecast PriceForecast
	err := Decode(`{"recognizedCrop":"Tomato","forecast":{"avgPrice":30,"minPrice":40,"maxPrice":50,"priceChange":2,"priceData":[{"month":"Jan","price":30}]}}`, &forecast, v)
	assert.ErrorIs(t, err, ErrMalformed, "minPrice above avgPrice")

	err = Decode(`{"recognizedCrop":"Tomato","forecast":{"avgPrice":30,"minPrice":20,"maxPrice":50,"priceChange":2,"priceData":[]}}`, &forecast, v)
	assert.ErrorIs(t, err, ErrMalformed, "empty series")

	err = Decode(`{"recognizedCrop":"Tomato","forecast":{"avgPrice":30,"minPrice":20,"maxPrice":50,"priceChange":-2.5,"priceData":[{"month":"Jan","price":30}]}}`, &forecast, v)
	require.NoError(t, err)
	assert.Equal(t, -2.5, forecast.Forecast.PriceChange)
}
