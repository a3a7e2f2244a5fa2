package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"jigsawreveal/internal/services"
)

// LockFile is the name of the render lock inside the staging directory.
const LockFile = "render.lock"

// Lock guards a staging directory against concurrent renders.
type Lock struct {
	Path string
	fl   *flock.Flock
}

// AcquireLock takes the render lock for root without blocking. It fails with
// ErrConfiguration when another process holds it.
func AcquireLock(root string) (*Lock, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "staging", "lock", "create staging directory", err)
	}
	path := filepath.Join(root, LockFile)
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "staging", "lock", "acquire render lock", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "staging", "lock",
			fmt.Sprintf("another render is using %s", root), nil)
	}
	return &Lock{Path: path, fl: fl}, nil
}

// Release unlocks. The lock file itself stays in place.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}
