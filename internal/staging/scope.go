package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"jigsawreveal/internal/logging"
)

// Scope is a working directory owned by one stage of one render. Release
// removes it; callers defer Release right after NewScope so the directory is
// gone on success and on error alike.
type Scope struct {
	Path   string
	logger *slog.Logger
}

var unsafeLabel = regexp.MustCompile(`[^a-z0-9]+`)

// NewScope creates <root>/<runID>.<label>.
func NewScope(root, runID, label string, logger *slog.Logger) (*Scope, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("staging root is empty")
	}
	label = strings.Trim(unsafeLabel.ReplaceAllString(strings.ToLower(label), "-"), "-")
	if label == "" {
		label = "scope"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root: %w", err)
	}
	path := filepath.Join(root, runID+"."+label)
	if err := os.Mkdir(path, 0o755); err != nil {
		return nil, fmt.Errorf("create scope: %w", err)
	}
	return &Scope{Path: path, logger: logging.NewComponentLogger(logger, "staging")}, nil
}

// Join returns a path inside the scope.
func (s *Scope) Join(elem ...string) string {
	return filepath.Join(append([]string{s.Path}, elem...)...)
}

// Release removes the scope directory. It is safe to call more than once.
func (s *Scope) Release() {
	if s == nil || s.Path == "" {
		return
	}
	if err := os.RemoveAll(s.Path); err != nil {
		s.logger.Warn("failed to release scope",
			logging.String("path", s.Path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "staging_release_failed"),
			logging.String(logging.FieldErrorHint, "run jigsaw staging clean"),
		)
	}
}

func splitScopeName(name string) (runID, label string) {
	runID, label, ok := strings.Cut(name, ".")
	if !ok {
		return "", name
	}
	return runID, label
}
