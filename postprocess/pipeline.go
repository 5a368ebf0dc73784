package postprocess

import (
	"fmt"
	"sync"

	"github.com/gridseq/go-gridseq"
	"gocv.io/x/gocv"
)

// Pipeline composes the decode, stitch and evaluate stages for one image.
// It holds only immutable configuration so a single Pipeline may be shared
// by concurrent workers.
type Pipeline struct {
	decoder   *Decoder
	stitcher  *Stitcher
	evaluator *Evaluator
}

// NewPipeline returns a Pipeline for the given grid configuration and stage
// parameters
func NewPipeline(cfg *gridseq.GridConfig, stitch StitchParams,
	eval EvaluatorParams) *Pipeline {

	return &Pipeline{
		decoder:   NewDecoder(cfg),
		stitcher:  NewStitcher(stitch),
		evaluator: NewEvaluator(eval),
	}
}

// Process decodes and stitches one image's raw outputs then scores the
// result against the image's ground truth.  The stitched detections are
// returned alongside the coverage counts for visualisation.
func (p *Pipeline) Process(out *gridseq.Outputs, truth []Truth) (CoverageCount, []Rect, error) {

	grid, err := p.decoder.DecodeGrid(out)

	if err != nil {
		return CoverageCount{}, nil, fmt.Errorf("error decoding outputs: %w", err)
	}

	detections := p.stitcher.Stitch(grid)

	return p.evaluator.Coverage(detections, truth), detections, nil
}

// Sample is one image and its ground truth annotations queued for batch
// evaluation
type Sample struct {
	// Img is the input frame sized to the grid configuration's image
	// dimensions
	Img gocv.Mat
	// Truth are the ground truth boxes for the frame in corner form
	Truth []Truth
}

// EvalBatch runs every sample through the pipeline, fanning out across the
// oracle pool with one worker per pooled model instance, and returns the
// summed coverage counts.  Per image work is independent so no ordering is
// preserved.  The first oracle error encountered is returned after all
// workers drain.
func (p *Pipeline) EvalBatch(pool *gridseq.Pool, samples []Sample) (CoverageCount, error) {

	jobs := make(chan Sample)
	counts := make(chan CoverageCount, len(samples))
	errs := make(chan error, len(samples))

	var wg sync.WaitGroup

	for w := 0; w < pool.Size(); w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for sample := range jobs {

				oracle := pool.Get()
				out, err := oracle.Forward(sample.Img)
				pool.Return(oracle)

				if err != nil {
					errs <- fmt.Errorf("error running oracle: %w", err)
					continue
				}

				count, _, err := p.Process(out, sample.Truth)

				if err != nil {
					errs <- err
					continue
				}

				counts <- count
			}
		}()
	}

	for _, sample := range samples {
		jobs <- sample
	}

	close(jobs)
	wg.Wait()
	close(counts)
	close(errs)

	var total CoverageCount

	for count := range counts {
		total.Add(count)
	}

	if err := <-errs; err != nil {
		return total, err
	}

	return total, nil
}
