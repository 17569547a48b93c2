package cpufreq

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSetRejectsUnknownGovernor(t *testing.T) {
	invoked := false
	control := NewControl(Config{
		Root: t.TempDir(),
		Euid: func() int { return 1000 },
		Run: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			invoked = true
			return nil, nil
		},
	})

	err := control.Set("turbo")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidGovernor))
	require.False(t, invoked)
}

func TestSetDirectWritesEveryCore(t *testing.T) {
	root := t.TempDir()

	cpu0 := filepath.Join(root, "cpu0", "cpufreq")
	require.NoError(t, os.MkdirAll(cpu0, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cpu0, "scaling_governor"), []byte("powersave"), 0644))

	cpu1 := filepath.Join(root, "cpu1", "cpufreq")
	require.NoError(t, os.MkdirAll(cpu1, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cpu1, "scaling_governor"), []byte("powersave"), 0644))

	// a core without cpufreq control must be tolerated
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cpu2"), 0755))

	control := NewControl(Config{
		Root: root,
		Euid: func() int { return 0 },
	})

	require.NoError(t, control.Set("performance"))

	for _, cpu := range []string{"cpu0", "cpu1"} {
		b, err := os.ReadFile(filepath.Join(root, cpu, "cpufreq", "scaling_governor"))
		require.NoError(t, err)
		require.Equal(t, "performance", string(b))
	}
}

func TestSetElevated(t *testing.T) {
	var script string
	control := NewControl(Config{
		Root: "/sys/devices/system/cpu",
		Euid: func() int { return 1000 },
		Run: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			require.Equal(t, "sudo", name)
			require.Len(t, arg, 4)
			script = arg[3]
			return nil, nil
		},
	})

	require.NoError(t, control.Set("powersave"))
	require.Contains(t, script, "echo powersave")
	require.Contains(t, script, "scaling_governor")
}

func TestSetElevatedFailure(t *testing.T) {
	control := NewControl(Config{
		Euid: func() int { return 1000 },
		Run: func(ctx context.Context, name string, arg ...string) ([]byte, error) {
			return []byte("sudo: a password is required"), errors.New("exit status 1")
		},
	})

	require.Error(t, control.Set("ondemand"))
}

func TestGovernorsIsACopy(t *testing.T) {
	g := Governors()
	g[0] = "mangled"
	require.Equal(t, "performance", Governors()[0])
}
