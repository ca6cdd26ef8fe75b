package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-manip/roe"
	"github.com/arloliu/go-manip/session"
	"github.com/arloliu/go-manip/transport/serialport"
	"github.com/arloliu/go-manip/transport/simulator"
	"github.com/arloliu/go-manip/transport/tarmport"
)

// resetViper gives a test a clean global viper with defaults registered.
func resetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DriverSerial, cfg.Transport.Driver)
	assert.Equal(t, 16, cfg.Session.MaxManipulators)
	assert.Equal(t, "lenient", cfg.Session.SetupPolicy)
	assert.Equal(t, "reject", cfg.Session.Validation)
	assert.Equal(t, "strict", cfg.Session.TrailerMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.Len(t, cfg.Catalog.Signatures, 1)
	assert.Equal(t, "Sutter Instrument ROE-200", cfg.Catalog.Signatures[0].Description)
	assert.Empty(t, cfg.Validate())
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default().Session, cfg.Session)
	assert.Equal(t, Default().Catalog, cfg.Catalog)
	require.Len(t, cfg.Transport.SimDevices, 2)
	assert.True(t, cfg.Transport.SimDevices[0].Manipulator)
	assert.Equal(t, []int32{200000, 200000, 200000}, cfg.Transport.SimDevices[0].Drive1)
}

func TestLoad_File(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "manipctl.yaml")
	content := `
transport:
  driver: tarm
  ports:
    - path: /dev/ttyUSB0
      description: Sutter Instrument ROE-200
      serial: SI1234
session:
  max_manipulators: 4
  setup_policy: strict
  validation: clamp
  trailer_mode: tolerant
logging:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverTarm, cfg.Transport.Driver)
	require.Len(t, cfg.Transport.Ports, 1)
	assert.Equal(t, PortConfig{Path: "/dev/ttyUSB0", Description: "Sutter Instrument ROE-200", Serial: "SI1234"}, cfg.Transport.Ports[0])
	assert.Equal(t, SessionConfig{MaxManipulators: 4, SetupPolicy: "strict", Validation: "clamp", TrailerMode: "tolerant"}, cfg.Session)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Env(t *testing.T) {
	resetViper(t)
	t.Setenv("MANIPCTL_SESSION_VALIDATION", "warn")
	t.Setenv("MANIPCTL_TRANSPORT_DRIVER", "sim")

	BindEnv()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Session.Validation)
	assert.Equal(t, DriverSimulator, cfg.Transport.Driver)
}

func TestLoad_Invalid(t *testing.T) {
	resetViper(t)
	viper.Set("transport.driver", "usb")
	viper.Set("session.max_manipulators", 0)
	viper.Set("session.validation", "ignore")

	_, err := Load()
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
	assert.Contains(t, err.Error(), "3 validation errors")
	assert.Contains(t, err.Error(), "transport.driver")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Transport.Driver = DriverTarm
	cfg.Transport.SimDevices[0].Drive1 = []int32{1, 2}
	cfg.Catalog.Signatures = nil
	cfg.Session.SetupPolicy = "paranoid"
	cfg.Session.TrailerMode = "lax"
	cfg.Logging.Level = "loud"
	cfg.Logging.Format = "xml"

	fields := make([]string, 0)
	for _, e := range cfg.Validate() {
		fields = append(fields, e.Field)
	}

	assert.ElementsMatch(t, []string{
		"transport.ports",
		"transport.sim_devices[0].drive1",
		"catalog.signatures",
		"session.setup_policy",
		"session.trailer_mode",
		"logging.level",
		"logging.format",
	}, fields)
}

func TestNewTransport(t *testing.T) {
	cfg := Default()

	tr, err := cfg.NewTransport(nil)
	require.NoError(t, err)
	assert.IsType(t, &serialport.Transport{}, tr)

	cfg.Transport.Driver = DriverTarm
	cfg.Transport.Ports = []PortConfig{{Path: "/dev/ttyUSB0", Serial: "S"}}
	tr, err = cfg.NewTransport(nil)
	require.NoError(t, err)
	assert.IsType(t, &tarmport.Transport{}, tr)

	cfg.Transport.Driver = DriverSimulator
	tr, err = cfg.NewTransport(nil)
	require.NoError(t, err)
	require.IsType(t, &simulator.Transport{}, tr)
	n, err := tr.Enumerate()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cfg.Transport.Driver = "usb"
	_, err = cfg.NewTransport(nil)
	require.Error(t, err)
}

func TestNewRegistry_Simulator(t *testing.T) {
	cfg := Default()
	cfg.Transport.Driver = DriverSimulator
	cfg.Session.Validation = "clamp"

	var buf bytes.Buffer
	l, err := cfg.NewLogger(&buf)
	require.NoError(t, err)

	reg, err := cfg.NewRegistry(l)
	require.NoError(t, err)
	assert.Equal(t, roe.ValidateClamp, reg.Config().ValidationPolicy())
	assert.Equal(t, session.SetupLenient, reg.Config().SetupPolicy())

	indices, err := reg.Initialize(t.Context())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Uninitialize() })
	assert.Equal(t, []int{0}, indices)

	pos, err := reg.GetPosition(t.Context(), 0, roe.Drive1)
	require.NoError(t, err)
	assert.Equal(t, roe.Position{X: 200000, Y: 200000, Z: 200000}, pos)
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	assert.Equal(t, "/tmp/xdg/manipctl", ConfigDir())
	assert.Equal(t, "/tmp/xdg/manipctl/manipctl.yaml", ConfigFile())
}
