package thermal

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/g15tools/G15Manager/system/acpi"
	"github.com/g15tools/G15Manager/system/persist"

	"github.com/pkg/errors"
)

const (
	thermalPersistKey = "ThermalProfile"
)

// Config defines the channel and the firmware method path for the Control
type Config struct {
	Channel acpi.Channel
	// Method selects the firmware namespace, fixed for the lifetime of the
	// Control. Defaults to the Intel path.
	Method string
}

// Control owns the thermal profile state machine. The cached G-Mode flag is
// best-effort and can drift from hardware; QueryBoostStatus is the only
// operation that reconciles it. Callers must not construct more than one
// Control against the same channel concurrently.
type Control struct {
	Config

	mu             sync.RWMutex
	currentProfile *Profile
	boostActive    bool
}

// NewControl returns a Control for switching thermal profiles and G-Mode
func NewControl(conf Config) (*Control, error) {
	if conf.Channel == nil {
		return nil, errors.New("thermal: nil Channel is invalid")
	}
	if len(conf.Method) == 0 {
		conf.Method = acpi.MethodPathIntel
	}
	return &Control{
		Config: conf,
	}, nil
}

// CurrentProfile returns the profile last set by this Control, if any
func (c *Control) CurrentProfile() (Profile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.currentProfile == nil {
		return Profile{}, false
	}
	return *c.currentProfile, true
}

// BoostActive returns the cached G-Mode flag. This is not a hardware query
func (c *Control) BoostActive() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.boostActive
}

// SetProfile switches the firmware to the given profile. Switching to a
// non-GameBoost profile also clears the G-Mode flag as housekeeping; the
// flag write is best-effort and its failure does not fail the switch.
func (c *Control) SetProfile(p Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setProfile(p, true)
}

func (c *Control) setProfile(p Profile, housekeep bool) error {
	if err := c.submitProfile(p); err != nil {
		return err
	}
	if housekeep && p.Code != ProfileGameBoost.Code {
		if err := c.submitGameMode(false); err != nil {
			log.Printf("thermal: cannot clear G-Mode flag: %s\n", err)
		}
		c.boostActive = false
	}
	return nil
}

func (c *Control) submitProfile(p Profile) error {
	_, err := c.Config.Channel.Execute(acpi.SetThermalModeCommand(c.Config.Method, p.Code))
	if err != nil {
		return errors.Wrapf(err, "thermal: cannot set profile %s", p.ID)
	}

	profile := p
	c.currentProfile = &profile
	log.Printf("thermal: profile set to %s\n", p.ID)

	return nil
}

func (c *Control) submitGameMode(on bool) error {
	_, err := c.Config.Channel.Execute(acpi.SetGameModeCommand(c.Config.Method, on))
	if err != nil {
		return errors.Wrap(err, "thermal: cannot write G-Mode flag")
	}
	return nil
}

// EnableBoost switches to the GameBoost profile, then raises the G-Mode
// flag. If the profile switch fails the flag is never written. If only the
// flag write fails, the profile stays at GameBoost with the flag off, which
// is safe: the fans are already on the aggressive curve.
func (c *Control) EnableBoost() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.setProfile(ProfileGameBoost, true); err != nil {
		return err
	}
	if err := c.submitGameMode(true); err != nil {
		return err
	}
	c.boostActive = true

	log.Println("thermal: G-Mode enabled")

	return nil
}

// DisableBoost clears the G-Mode flag and returns to the Balanced profile.
// Both steps are always attempted regardless of the first one's outcome,
// and the cached flag always ends up false: when in doubt, fail toward
// fans-at-maximum rather than leaving the flag raised.
func (c *Control) DisableBoost() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	flagErr := c.submitGameMode(false)
	profileErr := c.setProfile(ProfileBalanced, false)
	c.boostActive = false

	log.Println("thermal: G-Mode disabled")

	if flagErr != nil {
		return flagErr
	}
	return profileErr
}

// ToggleBoost dispatches on the cached flag, not a fresh hardware query.
// Callers needing ground truth must call QueryBoostStatus first.
func (c *Control) ToggleBoost() error {
	if c.BoostActive() {
		return c.DisableBoost()
	}
	return c.EnableBoost()
}

// QueryBoostStatus asks the firmware whether G-Mode is on and updates the
// cached flag to match. The reply is free-form; presence of the GameBoost
// opcode in the payload is the only known success signal.
func (c *Control) QueryBoostStatus() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply, err := c.Config.Channel.Execute(acpi.QueryGameModeCommand(c.Config.Method))
	if err != nil {
		return false, errors.Wrap(err, "thermal: cannot query G-Mode status")
	}

	token := fmt.Sprintf("%#02x", ProfileGameBoost.Code)
	active := strings.Contains(strings.ToLower(reply), token)
	c.boostActive = active

	return active, nil
}

var _ persist.Registry = &Control{}

// Name satisfies persist.Registry
func (c *Control) Name() string {
	return thermalPersistKey
}

// Value satisfies persist.Registry
func (c *Control) Value() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.currentProfile == nil {
		return nil
	}
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(c.currentProfile.ID); err != nil {
		return nil
	}
	return buf.Bytes()
}

// Load satisfies persist.Registry
func (c *Control) Load(v []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(v) == 0 {
		return nil
	}
	var id string
	dec := gob.NewDecoder(bytes.NewBuffer(v))
	if err := dec.Decode(&id); err != nil {
		return err
	}
	if p, ok := ProfileWithID(id); ok {
		profile := p
		c.currentProfile = &profile
	}
	return nil
}

// Apply satisfies persist.Registry
func (c *Control) Apply() error {
	p, ok := c.CurrentProfile()
	if !ok {
		return nil
	}
	if p.Code == ProfileGameBoost.Code {
		return c.EnableBoost()
	}
	return c.SetProfile(p)
}

// Close satisfies persist.Registry
func (c *Control) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.Config.Channel.Close()
}
