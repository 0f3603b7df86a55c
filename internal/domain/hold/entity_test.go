package hold

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHold(t *testing.T) {
	h := NewHold("avengers_2026_7pm", []string{"A1", "A2"}, 600)

	require.NoError(t, h.Validate())
	_, err := uuid.Parse(h.ID)
	assert.NoError(t, err, "IDはUUIDとして採番される")
	assert.Equal(t, "avengers_2026_7pm", h.ShowID)
	assert.Equal(t, []string{"A1", "A2"}, h.SeatIDs)
	assert.Equal(t, StatusActive, h.Status)
	assert.Equal(t, 600, h.DurationSeconds)
	assert.Equal(t, h.CreatedAt.Add(600*time.Second), h.ExpiresAt)
}

func TestClampDuration(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"未指定はデフォルト600秒", 0, DefaultDurationSeconds},
		{"負数もデフォルト600秒", -10, DefaultDurationSeconds},
		{"下限未満は60秒に丸める", 30, MinDurationSeconds},
		{"下限ちょうど", 60, 60},
		{"範囲内はそのまま", 300, 300},
		{"上限ちょうど", 1800, 1800},
		{"上限超過は1800秒に丸める", 7200, MaxDurationSeconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClampDuration(tt.input))
		})
	}
}

func TestHold_Validate(t *testing.T) {
	tests := []struct {
		name        string
		hold        *Hold
		expectedErr error
	}{
		{
			name:        "有効なホールド",
			hold:        &Hold{ShowID: "show-1", SeatIDs: []string{"A1", "A2"}},
			expectedErr: nil,
		},
		{
			name:        "公演IDが空",
			hold:        &Hold{ShowID: "", SeatIDs: []string{"A1"}},
			expectedErr: ErrShowIDRequired,
		},
		{
			name:        "座席未選択",
			hold:        &Hold{ShowID: "show-1", SeatIDs: []string{}},
			expectedErr: ErrSeatIDsRequired,
		},
		{
			name:        "座席IDが重複",
			hold:        &Hold{ShowID: "show-1", SeatIDs: []string{"A1", "A2", "A1"}},
			expectedErr: ErrDuplicateSeatIDs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hold.Validate()
			if tt.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestHold_IsExpired(t *testing.T) {
	h := NewHold("show-1", []string{"A1"}, 600)
	assert.False(t, h.IsExpired())

	h.ExpiresAt = time.Now().Add(-1 * time.Second)
	assert.True(t, h.IsExpired(), "期限を過ぎたホールドは状態に関わらず期限切れ判定になる")
}

func TestHold_IsActive(t *testing.T) {
	tests := []struct {
		name     string
		status   Status
		expected bool
	}{
		{"active", StatusActive, true},
		{"expired", StatusExpired, false},
		{"consumed", StatusConsumed, false},
		{"released", StatusReleased, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &Hold{Status: tt.status}
			assert.Equal(t, tt.expected, h.IsActive())
		})
	}
}
