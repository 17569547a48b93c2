package thermal

// Profile is one of the discrete thermal modes defined by the firmware.
// Profiles are values: the opcode and label never change at runtime.
type Profile struct {
	ID          string
	Code        byte
	Description string
}

// The closed set of profiles known to the Dell G15 firmware
var (
	ProfileBalanced    = Profile{ID: "balanced", Code: 0xa0, Description: "Balanced - conservative fan curve"}
	ProfilePerformance = Profile{ID: "performance", Code: 0xa1, Description: "Performance - aggressive fan curve"}
	ProfileQuiet       = Profile{ID: "quiet", Code: 0xa3, Description: "Quiet - limited fan RPM"}
	ProfileGameBoost   = Profile{ID: "gmode", Code: 0xab, Description: "Game Shift - fans at full speed"}
)

// Profiles returns every profile the firmware understands
func Profiles() []Profile {
	return []Profile{
		ProfileBalanced,
		ProfilePerformance,
		ProfileQuiet,
		ProfileGameBoost,
	}
}

// ProfileWithID looks a profile up by its identifier
func ProfileWithID(id string) (Profile, bool) {
	for _, p := range Profiles() {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}
