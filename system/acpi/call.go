package acpi

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Timeouts for the elevated path. The write triggers firmware execution and
// can stall on a wedged method, hence the longer budget.
const (
	elevatedWriteTimeout = time.Second * 10
	elevatedReadTimeout  = time.Second * 5
)

// Config defines how to reach the acpi_call node
type Config struct {
	// Path is the channel node, defaults to CallPath
	Path string
	// Euid reports the effective uid, defaults to unix.Geteuid
	Euid func() int
}

// Call submits commands to the acpi_call node and reads back the reply.
// The node is shared kernel state: do not construct more than one Call
// against the same path concurrently.
type Call struct {
	Config
}

var _ Channel = &Call{}

// NewCall returns a Channel backed by the acpi_call node
func NewCall(conf Config) (*Call, error) {
	if len(conf.Path) == 0 {
		conf.Path = CallPath
	}
	if conf.Euid == nil {
		conf.Euid = unix.Geteuid
	}
	return &Call{
		Config: conf,
	}, nil
}

// Execute writes the command to the node and reads the reply back as two
// separate operations (the reply is only available via a read-back). When
// the process lacks root, both operations are routed through sudo -n.
func (c *Call) Execute(command string) (string, error) {
	log.Printf("acpi: %s command: %s\n", c.Config.Path, command)

	var raw string
	var err error
	if c.Config.Euid() == 0 {
		raw, err = c.executeDirect(command)
	} else {
		raw, err = c.executeElevated(command)
	}
	if err != nil {
		return "", err
	}

	reply, err := ParseReply(raw)
	if err != nil {
		return "", err
	}
	log.Printf("acpi: %s reply: %s\n", c.Config.Path, reply)

	return reply, nil
}

func (c *Call) executeDirect(command string) (string, error) {
	if err := os.WriteFile(c.Config.Path, []byte(command), 0644); err != nil {
		return "", errors.Wrap(err, "acpi: cannot write command")
	}
	raw, err := os.ReadFile(c.Config.Path)
	if err != nil {
		return "", errors.Wrap(err, "acpi: cannot read reply")
	}
	return string(raw), nil
}

func (c *Call) executeElevated(command string) (string, error) {
	writeCtx, cancelWrite := context.WithTimeout(context.Background(), elevatedWriteTimeout)
	defer cancelWrite()

	write := exec.CommandContext(writeCtx, "sudo", "-n", "bash", "-c",
		fmt.Sprintf(`echo "%s" > %s`, command, c.Config.Path))
	if out, err := write.CombinedOutput(); err != nil {
		return "", errors.Wrapf(err, "acpi: cannot write command: %s", strings.TrimSpace(string(out)))
	}

	readCtx, cancelRead := context.WithTimeout(context.Background(), elevatedReadTimeout)
	defer cancelRead()

	read := exec.CommandContext(readCtx, "sudo", "-n", "cat", c.Config.Path)
	raw, err := read.Output()
	if err != nil {
		return "", errors.Wrap(err, "acpi: cannot read reply")
	}
	return string(raw), nil
}

// Close satisfies Channel. The node is not held open between calls
func (c *Call) Close() error {
	return nil
}
