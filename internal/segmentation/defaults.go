package segmentation

import (
	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
	"github.com/custodia-labs/clausesense/internal/segmentation/splitter"
)

// Processor names, in pipeline order.
const (
	ProcessorStructure = "structure"
	ProcessorBound     = "bound"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(ProcessorStructure, func(map[string]any) (driven.ClauseProcessor, error) {
		return splitter.NewStructural(), nil
	})
	r.Register(ProcessorBound, buildBounder)
}

// buildBounder creates the size bounder from generic config.
// Supported config keys:
//   - max_chars (int): Maximum clause length (default: 1800)
//   - overlap (float): Context overlap fraction (default: 0.2)
func buildBounder(cfg map[string]any) (driven.ClauseProcessor, error) {
	var opts []splitter.Option
	if cfg != nil {
		if n := getInt(cfg, "max_chars"); n > 0 {
			opts = append(opts, splitter.WithMaxChars(n))
		}
		if f, ok := getFloat(cfg, "overlap"); ok {
			opts = append(opts, splitter.WithOverlap(f))
		}
	}
	return splitter.NewBounder(opts...), nil
}

// getInt safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getInt(cfg map[string]any, key string) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getFloat(cfg map[string]any, key string) (float64, bool) {
	switch v := cfg[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
