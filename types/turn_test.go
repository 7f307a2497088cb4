package types

import "testing"

func strPtr(s string) *string { return &s }

func TestTurnMetaValidate(t *testing.T) {
	tests := []struct {
		name    string
		meta    TurnMeta
		wantErr bool
	}{
		{
			name:    "valid initial turn",
			meta:    TurnMeta{TurnID: "turn-1", Attempt: 1},
			wantErr: false,
		},
		{
			name: "valid regenerated turn",
			meta: TurnMeta{
				TurnID:       "turn-2",
				Attempt:      2,
				ParentTurnID: strPtr("turn-1"),
			},
			wantErr: false,
		},
		{
			name: "valid turn with session",
			meta: TurnMeta{
				TurnID:    "turn-1",
				SessionID: strPtr("sess-1"),
				Attempt:   1,
			},
			wantErr: false,
		},
		{
			name:    "empty turn_id",
			meta:    TurnMeta{Attempt: 1},
			wantErr: true,
		},
		{
			name:    "zero attempt",
			meta:    TurnMeta{TurnID: "turn-1", Attempt: 0},
			wantErr: true,
		},
		{
			name:    "negative attempt",
			meta:    TurnMeta{TurnID: "turn-1", Attempt: -1},
			wantErr: true,
		},
		{
			name: "initial turn with parent",
			meta: TurnMeta{
				TurnID:       "turn-1",
				Attempt:      1,
				ParentTurnID: strPtr("turn-0"),
			},
			wantErr: true,
		},
		{
			name:    "regenerated turn without parent",
			meta:    TurnMeta{TurnID: "turn-2", Attempt: 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.meta.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
