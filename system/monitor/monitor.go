package monitor

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Default procfs/sysfs locations. Overridable for tests
const (
	defaultHwmonRoot       = "/sys/class/hwmon"
	defaultMeminfoPath     = "/proc/meminfo"
	defaultPowerSupplyRoot = "/sys/class/power_supply"
)

// hwmon drivers we know how to read temperatures and fan speeds from
var (
	cpuTempDrivers = []string{"coretemp", "k10temp"}
	fanDrivers     = []string{"dell_smm", "dell_smm_hwmon"}
)

// CPUStats reports package temperatures in degrees Celsius
type CPUStats struct {
	AverageTemp float64
	MaxTemp     float64
	CoreTemps   []float64
}

// FanStats reports fan speeds in RPM. Source names the hwmon driver
type FanStats struct {
	Fan1RPM int
	Fan2RPM int
	Source  string
}

// RAMStats reports memory usage in GiB
type RAMStats struct {
	UsedGB      float64
	TotalGB     float64
	AvailableGB float64
	Percent     float64
}

// BatteryStats reports charge and health in percent
type BatteryStats struct {
	Percent       float64
	HealthPercent float64
	Status        string
	PluggedIn     bool
}

// Snapshot is a read-only view of system telemetry. Sections that could
// not be read are nil
type Snapshot struct {
	CPU     *CPUStats
	Fans    *FanStats
	RAM     *RAMStats
	Battery *BatteryStats
	Taken   time.Time
}

// Config defines the procfs/sysfs roots to read from
type Config struct {
	HwmonRoot       string
	MeminfoPath     string
	PowerSupplyRoot string
}

// Monitor takes best-effort telemetry snapshots. All reads are plain file
// reads and require no privilege
type Monitor struct {
	Config
}

// NewMonitor returns a Monitor with defaults filled in
func NewMonitor(conf Config) *Monitor {
	if len(conf.HwmonRoot) == 0 {
		conf.HwmonRoot = defaultHwmonRoot
	}
	if len(conf.MeminfoPath) == 0 {
		conf.MeminfoPath = defaultMeminfoPath
	}
	if len(conf.PowerSupplyRoot) == 0 {
		conf.PowerSupplyRoot = defaultPowerSupplyRoot
	}
	return &Monitor{
		Config: conf,
	}
}

// Snapshot reads every section once. Failures leave the section nil
func (m *Monitor) Snapshot() Snapshot {
	return Snapshot{
		CPU:     m.cpuStats(),
		Fans:    m.fanStats(),
		RAM:     m.ramStats(),
		Battery: m.batteryStats(),
		Taken:   time.Now(),
	}
}

func (m *Monitor) hwmonWithName(names []string) (string, string) {
	dirs, err := filepath.Glob(filepath.Join(m.Config.HwmonRoot, "hwmon*"))
	if err != nil {
		return "", ""
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		name, err := readString(filepath.Join(dir, "name"))
		if err != nil {
			continue
		}
		for _, want := range names {
			if name == want {
				return dir, name
			}
		}
	}
	return "", ""
}

func (m *Monitor) cpuStats() *CPUStats {
	dir, _ := m.hwmonWithName(cpuTempDrivers)
	if len(dir) == 0 {
		return nil
	}

	inputs, err := filepath.Glob(filepath.Join(dir, "temp*_input"))
	if err != nil || len(inputs) == 0 {
		return nil
	}
	sort.Strings(inputs)

	stats := &CPUStats{}
	sum := 0.0
	for _, input := range inputs {
		milli, err := readInt(input)
		if err != nil {
			continue
		}
		temp := float64(milli) / 1000.0
		stats.CoreTemps = append(stats.CoreTemps, temp)
		sum += temp
		if temp > stats.MaxTemp {
			stats.MaxTemp = temp
		}
	}
	if len(stats.CoreTemps) == 0 {
		return nil
	}
	stats.AverageTemp = sum / float64(len(stats.CoreTemps))

	return stats
}

func (m *Monitor) fanStats() *FanStats {
	dir, name := m.hwmonWithName(fanDrivers)
	if len(dir) == 0 {
		return nil
	}

	fan1, err1 := readInt(filepath.Join(dir, "fan1_input"))
	fan2, err2 := readInt(filepath.Join(dir, "fan2_input"))
	if err1 != nil && err2 != nil {
		return nil
	}

	return &FanStats{
		Fan1RPM: fan1,
		Fan2RPM: fan2,
		Source:  name,
	}
}

func (m *Monitor) ramStats() *RAMStats {
	f, err := os.Open(m.Config.MeminfoPath)
	if err != nil {
		return nil
	}
	defer f.Close()

	var totalKB, availableKB int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB, _ = strconv.Atoi(fields[1])
		case "MemAvailable:":
			availableKB, _ = strconv.Atoi(fields[1])
		}
	}
	if totalKB == 0 {
		return nil
	}

	const kbPerGB = 1024 * 1024
	total := float64(totalKB) / kbPerGB
	available := float64(availableKB) / kbPerGB
	used := total - available

	return &RAMStats{
		UsedGB:      used,
		TotalGB:     total,
		AvailableGB: available,
		Percent:     used / total * 100,
	}
}

func (m *Monitor) batteryStats() *BatteryStats {
	dirs, err := filepath.Glob(filepath.Join(m.Config.PowerSupplyRoot, "BAT*"))
	if err != nil || len(dirs) == 0 {
		return nil
	}
	sort.Strings(dirs)
	dir := dirs[0]

	capacity, err := readInt(filepath.Join(dir, "capacity"))
	if err != nil {
		return nil
	}

	status, _ := readString(filepath.Join(dir, "status"))

	stats := &BatteryStats{
		Percent:   float64(capacity),
		Status:    status,
		PluggedIn: status != "Discharging",
	}

	// energy_* on most Dell units, charge_* on others
	for _, prefix := range []string{"energy", "charge"} {
		full, errFull := readInt(filepath.Join(dir, prefix+"_full"))
		design, errDesign := readInt(filepath.Join(dir, prefix+"_full_design"))
		if errFull == nil && errDesign == nil && design > 0 {
			stats.HealthPercent = float64(full) / float64(design) * 100
			break
		}
	}

	return stats
}

func readString(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func readInt(path string) (int, error) {
	s, err := readString(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}
