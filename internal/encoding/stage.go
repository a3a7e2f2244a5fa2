package encoding

import (
	"fmt"
	"os"
	"path/filepath"

	"jigsawreveal/internal/timeline"
)

// sources holds one input path per plan layer and per plan sound. Every entry
// is a distinct file name, even when several inputs share content, so the
// graph never folds two inputs into one.
type sources struct {
	layers []string
	sounds []string
}

// stage writes the plan's stills into dir once each and links a uniquely
// named input for every layer and sound.
func stage(plan timeline.Plan, dir string) (sources, error) {
	stills := make(map[string]string)
	for _, still := range plan.Stills() {
		path := filepath.Join(dir, "still-"+still.Key+still.Ext())
		if err := os.WriteFile(path, still.Data, 0o644); err != nil {
			return sources{}, fmt.Errorf("write still: %w", err)
		}
		stills[still.Key] = path
	}

	var src sources
	for i, l := range plan.Layers {
		target := l.Path
		if l.Still != nil {
			target = stills[l.Still.Key]
		}
		link, err := linkInput(dir, fmt.Sprintf("layer-%03d", i), target)
		if err != nil {
			return sources{}, err
		}
		src.layers = append(src.layers, link)
	}
	for i, s := range plan.Sounds {
		link, err := linkInput(dir, fmt.Sprintf("sound-%03d", i), s.Path)
		if err != nil {
			return sources{}, err
		}
		src.sounds = append(src.sounds, link)
	}
	return src, nil
}

func linkInput(dir, name, target string) (string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("resolve input %s: %w", target, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("input %s: %w", target, err)
	}
	link := filepath.Join(dir, name+filepath.Ext(abs))
	if err := os.Symlink(abs, link); err != nil {
		return "", fmt.Errorf("link input %s: %w", target, err)
	}
	return link, nil
}
