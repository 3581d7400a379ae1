package segmentation

import (
	"context"
	"fmt"

	"github.com/custodia-labs/clausesense/internal/core/ports/driven"
)

// Pipeline chains multiple ClauseProcessors and runs them in order.
type Pipeline struct {
	processors []driven.ClauseProcessor
}

// NewPipeline creates a new processing pipeline with the given processors.
// Processors are executed in the order provided.
func NewPipeline(processors ...driven.ClauseProcessor) *Pipeline {
	return &Pipeline{
		processors: processors,
	}
}

// Process runs the input through all processors in order.
// The first processor receives nil segments and should create them.
func (p *Pipeline) Process(ctx context.Context, in *driven.SegmentationInput) ([]driven.Segment, error) {
	if in == nil {
		return nil, fmt.Errorf("segmentation input is nil")
	}

	var segments []driven.Segment
	for _, processor := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		segments, err = processor.Process(ctx, in, segments)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}

	return segments, nil
}

// Add appends a processor to the pipeline.
func (p *Pipeline) Add(processor driven.ClauseProcessor) {
	p.processors = append(p.processors, processor)
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}
