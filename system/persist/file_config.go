package persist

import (
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const configDirName = "g15manager"

// DefaultConfigDir resolves to ~/.config/g15manager, honoring XDG_CONFIG_HOME
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, configDirName), nil
}

// FileConfigHelper contains a list of configurations to be loaded, saved,
// and applied. Each Registry's value is stored as one binary file in the
// config directory
type FileConfigHelper struct {
	mu            sync.Mutex
	alreadyClosed bool
	configs       map[string]Registry
	dir           string
}

var _ ConfigRegistry = &FileConfigHelper{}

// NewFileConfigHelper returns a helper to persist configs under the given
// directory. An empty dir selects DefaultConfigDir
func NewFileConfigHelper(dir string) (*FileConfigHelper, error) {
	if len(dir) == 0 {
		var err error
		dir, err = DefaultConfigDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileConfigHelper{
		configs: make(map[string]Registry),
		dir:     dir,
	}, nil
}

// Register will add the config to the list
func (h *FileConfigHelper) Register(config Registry) {
	h.configs[config.Name()] = config
}

func (h *FileConfigHelper) pathFor(config Registry) string {
	return filepath.Join(h.dir, config.Name())
}

// Load will retrieve and populate configs from the config directory
func (h *FileConfigHelper) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, config := range h.configs {
		log.Printf("persist: loading \"%s\" from %s\n", config.Name(), h.dir)
		v, err := os.ReadFile(h.pathFor(config))
		if err != nil {
			if os.IsNotExist(err) {
				// nothing persisted yet
				continue
			}
			log.Printf("persist: error loading \"%s\": %s\n", config.Name(), err)
			return err
		}
		if err := config.Load(v); err != nil {
			log.Printf("persist: error populating \"%s\": %s\n", config.Name(), err)
			return err
		}
	}

	return nil
}

// Save will persist all the configs as binary files
func (h *FileConfigHelper) Save() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, config := range h.configs {
		v := config.Value()
		if v == nil {
			continue
		}
		log.Printf("persist: saving \"%s\" to %s\n", config.Name(), h.dir)
		if err := os.WriteFile(h.pathFor(config), v, 0600); err != nil {
			log.Printf("persist: error saving \"%s\": %s\n", config.Name(), err)
			return err
		}
	}

	return nil
}

// Apply will apply each config accordingly. This is usually called after Load()
func (h *FileConfigHelper) Apply() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, config := range h.configs {
		log.Printf("persist: applying \"%s\" config\n", config.Name())
		if err := config.Apply(); err != nil {
			log.Printf("persist: error applying \"%s\": %s\n", config.Name(), err)
			return err
		}
		time.Sleep(time.Millisecond * 25) // allow time for hardware configuration to propagate
	}

	return nil
}

// Close will release resources of each config
func (h *FileConfigHelper) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.alreadyClosed {
		return
	}
	h.alreadyClosed = true

	for _, config := range h.configs {
		log.Printf("persist: closing \"%s\"\n", config.Name())
		if err := config.Close(); err != nil {
			log.Printf("persist: error closing \"%s\": %s\n", config.Name(), err)
		}
	}
}
