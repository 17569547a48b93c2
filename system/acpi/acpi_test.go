package acpi

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSetThermalModeCommand(t *testing.T) {
	codes := []byte{0xa0, 0xa1, 0xa3, 0xab}
	expected := []string{
		`\_SB.AMWW.WMAX 0 0x15 {1, 0xa0, 0x00, 0x00}`,
		`\_SB.AMWW.WMAX 0 0x15 {1, 0xa1, 0x00, 0x00}`,
		`\_SB.AMWW.WMAX 0 0x15 {1, 0xa3, 0x00, 0x00}`,
		`\_SB.AMWW.WMAX 0 0x15 {1, 0xab, 0x00, 0x00}`,
	}

	for i, code := range codes {
		cmd := SetThermalModeCommand(MethodPathIntel, code)
		require.Equal(t, expected[i], cmd)
		require.Contains(t, cmd, "0x15")
		require.NotContains(t, cmd, "0x14")
		require.NotContains(t, cmd, "0x25")
	}
}

func TestSetThermalModeCommandAMDPath(t *testing.T) {
	cmd := SetThermalModeCommand(MethodPathAMD, 0xa0)
	require.Equal(t, `\_SB.AMW3.WMAX 0 0x15 {1, 0xa0, 0x00, 0x00}`, cmd)
}

func TestSetGameModeCommand(t *testing.T) {
	require.Equal(t,
		`\_SB.AMWW.WMAX 0 0x25 {1, 0x01, 0x00, 0x00}`,
		SetGameModeCommand(MethodPathIntel, true),
	)
	require.Equal(t,
		`\_SB.AMWW.WMAX 0 0x25 {1, 0x00, 0x00, 0x00}`,
		SetGameModeCommand(MethodPathIntel, false),
	)
}

func TestQueryGameModeCommand(t *testing.T) {
	require.Equal(t,
		`\_SB.AMWW.WMAX 0 0x14 {0x0b, 0x00, 0x00, 0x00}`,
		QueryGameModeCommand(MethodPathIntel),
	)
}

func TestParseReply(t *testing.T) {
	cases := []struct {
		raw      string
		expected string
		rejected bool
	}{
		{
			raw:      "Error: device busy",
			rejected: true,
		},
		{
			raw:      "Method not found",
			rejected: true,
		},
		{
			raw:      "AE_NOT_FOUND",
			expected: "AE_NOT_FOUND",
		},
		{
			raw:      "0x00",
			expected: "0x00",
		},
		{
			raw:      "  0xab\n",
			expected: "0xab",
		},
		{
			raw:      "{0xab, 0x00}",
			expected: "{0xab, 0x00}",
		},
	}

	for _, c := range cases {
		payload, err := ParseReply(c.raw)
		if c.rejected {
			require.Error(t, err, c.raw)
			require.True(t, errors.Is(err, ErrFirmwareRejected))
			continue
		}
		require.NoError(t, err, c.raw)
		require.Equal(t, c.expected, payload)
		require.Equal(t, strings.TrimSpace(c.raw), payload)
	}
}
