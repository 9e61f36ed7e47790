package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequireConfirmation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                 string
		toolName             string
		confirmationRequired bool
		args                 map[string]any
		wantErr              string
	}{
		{
			name:     "not required",
			toolName: "lock_door",
		},
		{
			name:                 "required and missing",
			toolName:             "unlock_door",
			confirmationRequired: true,
			wantErr:              "tool unlock_door requires confirm=true",
		},
		{
			name:                 "required and confirmed",
			toolName:             "unlock_door",
			confirmationRequired: true,
			args:                 map[string]any{"confirm": true},
		},
		{
			name:                 "confirm must be boolean true",
			toolName:             "unlock_door",
			confirmationRequired: true,
			args:                 map[string]any{"confirm": "true"},
			wantErr:              "requires confirm=true",
		},
		{
			name:                 "confirm false is rejected",
			toolName:             "unlock_door",
			confirmationRequired: true,
			args:                 map[string]any{"confirm": false},
			wantErr:              "requires confirm=true",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := RequireConfirmation(tc.toolName, tc.confirmationRequired, tc.args)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
