package acpi

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Method paths into the Dell WMI dispatcher. Intel boards expose AMWW,
// AMD boards expose AMW3. A controller is constructed against exactly one.
const (
	MethodPathIntel = `\_SB.AMWW.WMAX`
	MethodPathAMD   = `\_SB.AMW3.WMAX`
)

// CallPath is the read/write node exposed by the acpi_call kernel module
const CallPath = "/proc/acpi/call"

// ModuleName is the kernel module providing CallPath
const ModuleName = "acpi_call"

// Sub-functions of the WMAX method
const (
	subFnSetThermalMode = 0x15
	subFnQueryGameMode  = 0x14
	subFnSetGameMode    = 0x25
)

// ErrFirmwareRejected indicates the firmware returned an error string
// instead of a payload
var ErrFirmwareRejected = errors.New("firmware rejected the command")

// Channel is the transport used to submit a command to the firmware and
// read back its reply. Execute blocks for the full round trip.
type Channel interface {
	Execute(command string) (string, error)
	Close() error
}

// SetThermalModeCommand builds the command selecting a thermal profile.
// The firmware expects: <method> 0 0x15 {1, <code>, 0x00, 0x00}
func SetThermalModeCommand(method string, code byte) string {
	return fmt.Sprintf("%s 0 %#02x {1, %#02x, 0x00, 0x00}", method, subFnSetThermalMode, code)
}

// SetGameModeCommand builds the command flipping the G-Mode fan flag
func SetGameModeCommand(method string, on bool) string {
	var flag byte
	if on {
		flag = 0x01
	}
	return fmt.Sprintf("%s 0 %#02x {1, %#02x, 0x00, 0x00}", method, subFnSetGameMode, flag)
}

// QueryGameModeCommand builds the command querying the G-Mode flag
func QueryGameModeCommand(method string) string {
	return fmt.Sprintf("%s 0 %#02x {0x0b, 0x00, 0x00, 0x00}", method, subFnQueryGameMode)
}

// ParseReply classifies the free-text reply read back from the channel.
// The firmware reply grammar is undocumented; substring matching on the
// error tokens is the only verified-working strategy, so keep it as-is.
func ParseReply(raw string) (string, error) {
	reply := strings.TrimSpace(raw)
	lower := strings.ToLower(reply)
	if strings.Contains(lower, "error") || strings.Contains(lower, "not found") {
		return "", errors.Wrap(ErrFirmwareRejected, reply)
	}
	return reply, nil
}
