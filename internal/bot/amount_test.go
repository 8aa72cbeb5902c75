package bot

import (
	"testing"

	"travel-wallet/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr error
	}{
		{"500", "500", nil},
		{"12.5", "12.5", nil},
		{"12,5", "12.5", nil},
		{" 1 234,56 ", "1234.56", nil},
		{"0.01", "0.01", nil},
		{"0", "", models.ErrInvalidAmount},
		{"-5", "", models.ErrInvalidAmount},
		{"abc", "", ErrNotANumber},
		{"", "", ErrNotANumber},
		{"1e5", "", ErrNotANumber},
		{"1,2,3", "", ErrNotANumber},
		{"/skip", "", ErrNotANumber},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}
