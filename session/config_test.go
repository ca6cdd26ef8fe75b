package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/transport"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxManipulators, cfg.MaxManipulators())
	assert.Equal(t, SetupLenient, cfg.SetupPolicy())
	assert.Equal(t, roe.ValidateReject, cfg.ValidationPolicy())
	assert.Equal(t, roe.TrailerStrict, cfg.TrailerMode())
	assert.Equal(t, transport.DefaultLineConfig(), cfg.LineConfig())
	assert.NotNil(t, cfg.GetLogger())
}

func TestNewConfig_Options(t *testing.T) {
	lc := transport.DefaultLineConfig()
	lc.BaudRate = 9600

	cfg, err := NewConfig(
		WithMaxManipulators(4),
		WithSetupPolicy(SetupStrict),
		WithValidationPolicy(roe.ValidateClamp),
		WithTrailerMode(roe.TrailerTolerant),
		WithLineConfig(lc),
	)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.MaxManipulators())
	assert.Equal(t, SetupStrict, cfg.SetupPolicy())
	assert.Equal(t, roe.ValidateClamp, cfg.ValidationPolicy())
	assert.Equal(t, roe.TrailerTolerant, cfg.TrailerMode())
	assert.Equal(t, 9600, cfg.LineConfig().BaudRate)
}

func TestNewConfig_RangeChecks(t *testing.T) {
	bad := func(mutate func(*transport.LineConfig)) Option {
		lc := transport.DefaultLineConfig()
		mutate(&lc)

		return WithLineConfig(lc)
	}

	tests := []struct {
		name string
		opt  Option
	}{
		{"max zero", WithMaxManipulators(0)},
		{"max too large", WithMaxManipulators(MaxMaxManipulators + 1)},
		{"setup policy", WithSetupPolicy(SetupPolicy(7))},
		{"validation policy", WithValidationPolicy(roe.ValidationPolicy(7))},
		{"trailer mode", WithTrailerMode(roe.TrailerMode(7))},
		{"nil logger", WithLogger(nil)},
		{"data bits", bad(func(lc *transport.LineConfig) { lc.DataBits = 9 })},
		{"baud", bad(func(lc *transport.LineConfig) { lc.BaudRate = 0 })},
		{"timeout", bad(func(lc *transport.LineConfig) { lc.ReadTimeout = -time.Second })},
		{"usb", bad(func(lc *transport.LineConfig) { lc.USBInTransferSize = -1 })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.opt)
			require.Error(t, err)
		})
	}
}

func TestParseSetupPolicy(t *testing.T) {
	p, err := ParseSetupPolicy("STRICT")
	require.NoError(t, err)
	assert.Equal(t, SetupStrict, p)
	assert.Equal(t, "strict", p.String())

	p, err = ParseSetupPolicy("")
	require.NoError(t, err)
	assert.Equal(t, SetupLenient, p)

	_, err = ParseSetupPolicy("paranoid")
	require.Error(t, err)
}
