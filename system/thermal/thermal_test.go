package thermal

import (
	"strings"
	"testing"

	"github.com/g15tools/G15Manager/system/acpi"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type scriptedChannel struct {
	commands []string
	handler  func(command string) (string, error)
}

var _ acpi.Channel = &scriptedChannel{}

func (s *scriptedChannel) Execute(command string) (string, error) {
	s.commands = append(s.commands, command)
	if s.handler != nil {
		return s.handler(command)
	}
	return "0x0", nil
}

func (s *scriptedChannel) Close() error {
	return nil
}

func (s *scriptedChannel) issued(subFn string) int {
	count := 0
	for _, c := range s.commands {
		if strings.Contains(c, subFn) {
			count++
		}
	}
	return count
}

func newTestControl(t *testing.T, ch acpi.Channel) *Control {
	control, err := NewControl(Config{
		Channel: ch,
	})
	require.NoError(t, err)
	return control
}

func TestNewControlRequiresChannel(t *testing.T) {
	_, err := NewControl(Config{})
	require.Error(t, err)
}

func TestSetProfileUpdatesState(t *testing.T) {
	ch := &scriptedChannel{}
	control := newTestControl(t, ch)

	_, ok := control.CurrentProfile()
	require.False(t, ok)

	require.NoError(t, control.SetProfile(ProfilePerformance))

	p, ok := control.CurrentProfile()
	require.True(t, ok)
	require.Equal(t, ProfilePerformance, p)

	// profile write plus the housekeeping flag clear
	require.Equal(t, 1, ch.issued("0x15"))
	require.Equal(t, 1, ch.issued("0x25"))
	require.False(t, control.BoostActive())
}

func TestSetProfileFailureLeavesStateUnchanged(t *testing.T) {
	ch := &scriptedChannel{
		handler: func(command string) (string, error) {
			return "", errors.New("write timed out")
		},
	}
	control := newTestControl(t, ch)

	require.Error(t, control.SetProfile(ProfileQuiet))

	_, ok := control.CurrentProfile()
	require.False(t, ok)
	// no housekeeping after a failed profile write
	require.Equal(t, 0, ch.issued("0x25"))
}

func TestSetProfileClearsBoostCache(t *testing.T) {
	ch := &scriptedChannel{}
	control := newTestControl(t, ch)

	require.NoError(t, control.EnableBoost())
	require.True(t, control.BoostActive())

	require.NoError(t, control.SetProfile(ProfileBalanced))
	require.False(t, control.BoostActive())
}

func TestSetProfileSwallowsFlagClearFailure(t *testing.T) {
	ch := &scriptedChannel{}
	control := newTestControl(t, ch)

	require.NoError(t, control.EnableBoost())
	require.True(t, control.BoostActive())

	ch.handler = func(command string) (string, error) {
		if strings.Contains(command, "0x25") {
			return "", errors.New("Error: device busy")
		}
		return "0x0", nil
	}

	require.NoError(t, control.SetProfile(ProfileBalanced))

	p, ok := control.CurrentProfile()
	require.True(t, ok)
	require.Equal(t, ProfileBalanced, p)
	require.False(t, control.BoostActive())
}

func TestEnableBoostAbortsOnProfileFailure(t *testing.T) {
	ch := &scriptedChannel{
		handler: func(command string) (string, error) {
			if strings.Contains(command, "0x15") {
				return "", errors.New("write timed out")
			}
			return "0x0", nil
		},
	}
	control := newTestControl(t, ch)

	require.Error(t, control.EnableBoost())

	// the flag command must never be issued
	require.Equal(t, 0, ch.issued("0x25"))
	require.False(t, control.BoostActive())
}

func TestEnableBoostFlagFailure(t *testing.T) {
	ch := &scriptedChannel{
		handler: func(command string) (string, error) {
			if strings.Contains(command, "0x25") {
				return "", errors.New("Error: device busy")
			}
			return "0x0", nil
		},
	}
	control := newTestControl(t, ch)

	require.Error(t, control.EnableBoost())

	// profile switch succeeded, only the flag write failed
	p, ok := control.CurrentProfile()
	require.True(t, ok)
	require.Equal(t, ProfileGameBoost, p)
	require.False(t, control.BoostActive())
}

func TestDisableBoostAttemptsBothSteps(t *testing.T) {
	ch := &scriptedChannel{
		handler: func(command string) (string, error) {
			if strings.Contains(command, "0x25") {
				return "", errors.New("Error: device busy")
			}
			return "0x0", nil
		},
	}
	control := newTestControl(t, ch)

	require.Error(t, control.DisableBoost())

	// both commands issued exactly once despite the flag failure
	require.Equal(t, 1, ch.issued("0x25"))
	require.Equal(t, 1, ch.issued("0x15"))
	require.False(t, control.BoostActive())

	p, ok := control.CurrentProfile()
	require.True(t, ok)
	require.Equal(t, ProfileBalanced, p)
}

func TestDisableBoostIssuesEachCommandOnce(t *testing.T) {
	ch := &scriptedChannel{}
	control := newTestControl(t, ch)

	require.NoError(t, control.EnableBoost())
	ch.commands = nil

	require.NoError(t, control.DisableBoost())
	require.Equal(t, 1, ch.issued("0x25"))
	require.Equal(t, 1, ch.issued("0x15"))
	require.False(t, control.BoostActive())
}

func TestToggleBoostDispatchesOnCache(t *testing.T) {
	ch := &scriptedChannel{}
	control := newTestControl(t, ch)

	require.NoError(t, control.ToggleBoost())
	require.True(t, control.BoostActive())

	require.NoError(t, control.ToggleBoost())
	require.False(t, control.BoostActive())
}

func TestQueryBoostStatus(t *testing.T) {
	reply := "0xAB"
	ch := &scriptedChannel{
		handler: func(command string) (string, error) {
			require.Contains(t, command, "0x14")
			return reply, nil
		},
	}
	control := newTestControl(t, ch)

	active, err := control.QueryBoostStatus()
	require.NoError(t, err)
	require.True(t, active)
	require.True(t, control.BoostActive())

	reply = "0x00"
	active, err = control.QueryBoostStatus()
	require.NoError(t, err)
	require.False(t, active)
	require.False(t, control.BoostActive())
}

func TestThermalPersist(t *testing.T) {
	ch := &scriptedChannel{}
	control := newTestControl(t, ch)

	require.NoError(t, control.SetProfile(ProfileQuiet))
	require.NotEmpty(t, control.Name())

	b := control.Value()
	require.NotEmpty(t, b)

	loaded := newTestControl(t, &scriptedChannel{})
	require.NoError(t, loaded.Load(b))

	p, ok := loaded.CurrentProfile()
	require.True(t, ok)
	require.Equal(t, ProfileQuiet, p)
}

func TestThermalPersistEmptyValue(t *testing.T) {
	control := newTestControl(t, &scriptedChannel{})
	require.Nil(t, control.Value())
	require.NoError(t, control.Load(nil))
}
