package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/broadcast-sim/broadcast-sim/sim/config"
)

func TestFormatRunListing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
simulation:
  duration: 10
  seed: [0, 1]
  maxsize: [256, 512, 1024]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path, "simulation")
	assert.NoError(t, err)

	prev := configFile
	configFile = path
	defer func() { configFile = prev }()

	listing, err := FormatRunListing(cfg, false)
	assert.NoError(t, err)

	lines := 0
	for _, c := range listing {
		if c == '\n' {
			lines++
		}
	}
	assert.Equal(t, 6, lines)
	assert.Contains(t, listing, "broadcast-sim run -c "+path+" -s simulation -r 0\n")
	assert.Contains(t, listing, "-r 5\n")

	verbose, err := FormatRunListing(cfg, true)
	assert.NoError(t, err)
	assert.Contains(t, verbose, "-r 0: maxsize: 256 seed: 0\n")
	assert.Contains(t, verbose, "-r 4: maxsize: 512 seed: 1\n")
}
