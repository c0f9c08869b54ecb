package conditions

import (
	"errors"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/condlock/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesInput(t *testing.T) {
	at := time.Date(2030, 1, 2, 10, 4, 5, 999, time.FixedZone("ICT", 7*3600))
	c := New("  btcusdt ", " 1000000.50 ", "", &at)

	assert.Equal(t, "BTCUSDT", c.Asset)
	assert.Equal(t, "1000000.50", c.TargetPrice, "price text must not be reformatted")
	assert.Equal(t, "", c.MinPrice)
	assert.Equal(t, "2030-01-02T03:04:05Z", c.UnlockTime)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr bool
	}{
		{"time only", Condition{UnlockTime: "2030-01-01T00:00:00Z"}, false},
		{"target with asset", Condition{Asset: "BTCUSDT", TargetPrice: "100000"}, false},
		{"min with asset", Condition{Asset: "ETHUSDT", MinPrice: "1500.25"}, false},
		{"everything", Condition{Asset: "BTCUSDT", TargetPrice: "1", MinPrice: "2", UnlockTime: "2030-01-01T00:00:00Z"}, false},
		{"empty", Condition{}, true},
		{"asset only", Condition{Asset: "BTCUSDT"}, true},
		{"price without asset", Condition{TargetPrice: "100"}, true},
		{"negative price", Condition{Asset: "BTCUSDT", MinPrice: "-1"}, true},
		{"zero price", Condition{Asset: "BTCUSDT", TargetPrice: "0"}, true},
		{"garbage price", Condition{Asset: "BTCUSDT", TargetPrice: "1e"}, true},
		{"bad time", Condition{UnlockTime: "tomorrow"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, kerrors.ErrInvalidCondition))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParsedValues(t *testing.T) {
	c := Condition{Asset: "BTCUSDT", TargetPrice: "1000000", MinPrice: "999.5", UnlockTime: "2030-01-01T00:00:00Z"}

	target, err := c.Target()
	require.NoError(t, err)
	assert.Equal(t, "1000000", target.String())

	min, err := c.Min()
	require.NoError(t, err)
	assert.Equal(t, "999.5", min.String())

	at, err := c.UnlockAt()
	require.NoError(t, err)
	assert.True(t, at.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, "time >= 2030-01-01T00:00:00Z OR BTCUSDT >= 1000000 OR BTCUSDT <= 999.5", c.String())
}
