package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gridseq/go-gridseq"
	"github.com/gridseq/go-gridseq/postprocess"
	"github.com/gridseq/go-gridseq/render"
	"gocv.io/x/gocv"
)

// annotation is one image entry in the annotations JSON file
type annotation struct {
	Image string              `json:"image"`
	Boxes []postprocess.Truth `json:"boxes"`
}

// rawOutputs is the on disk form of one image's oracle output dump, as
// written by the model runtime that ran the network
type rawOutputs struct {
	Boxes       [][]float32 `json:"boxes"`
	Confidences [][]float32 `json:"confidences"`
}

// fileOracle replays oracle output dumps from disk.  It keeps the model
// runtime itself out of the example: any runtime that writes its raw
// per-step buffers alongside the image can be evaluated this way.
type fileOracle struct {
	cfg *gridseq.GridConfig
	dir string
	// name of the image being processed, set before Forward is called
	current string
}

func (f *fileOracle) Forward(img gocv.Mat) (*gridseq.Outputs, error) {

	path := filepath.Join(f.dir, f.current+".json")
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("error reading output dump: %w", err)
	}

	var raw rawOutputs

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing output dump %s: %w", path, err)
	}

	return gridseq.NewOutputs(f.cfg, raw.Boxes, raw.Confidences)
}

func (f *fileOracle) Close() error {
	return nil
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	annoFile := flag.String("a", "../data/annotations.json", "Annotations JSON file")
	outDir := flag.String("o", "../data/outputs/", "Directory of oracle output dumps, one <image>.json per image")
	imgDir := flag.String("d", "../data/images/", "Directory of input images")
	renderDir := flag.String("r", "", "Optional directory to write rendered detection images to")
	ttfFont := flag.String("f", "", "Optional TTF font file to draw labels with instead of the built in Hershey fonts")

	flag.Parse()

	data, err := os.ReadFile(*annoFile)

	if err != nil {
		log.Fatalf("Error reading annotations file: %v\n", err)
	}

	var annos []annotation

	if err := json.Unmarshal(data, &annos); err != nil {
		log.Fatalf("Error parsing annotations file: %v\n", err)
	}

	cfg := gridseq.BrainwashConfig()

	pipeline := postprocess.NewPipeline(&cfg,
		postprocess.DefaultStitchParams(), postprocess.DefaultEvaluatorParams())

	oracle := &fileOracle{cfg: &cfg, dir: *outDir}

	var face *render.TTFFace

	if *ttfFont != "" {
		face, err = render.LoadTTFFace(*ttfFont, 14)

		if err != nil {
			log.Fatalf("Error loading TTF font: %v\n", err)
		}

		defer face.Close()
	}

	// fileOracle never reads the frame, one blank Mat serves every image
	blank := gocv.NewMat()
	defer blank.Close()

	start := time.Now()

	var total postprocess.CoverageCount

	for _, anno := range annos {

		oracle.current = anno.Image
		out, err := oracle.Forward(blank)

		if err != nil {
			log.Fatalf("Error getting outputs for %s: %v\n", anno.Image, err)
		}

		count, detections, err := pipeline.Process(out, anno.Boxes)

		if err != nil {
			log.Fatalf("Error processing %s: %v\n", anno.Image, err)
		}

		total.Add(count)

		log.Printf("%s: %d detections, covered %d of %d\n",
			anno.Image, len(detections), count.Covered, count.Total)

		if *renderDir != "" {
			renderImage(filepath.Join(*imgDir, anno.Image),
				filepath.Join(*renderDir, anno.Image), &cfg, detections,
				anno.Boxes, face)
		}
	}

	log.Printf("Coverage: %d/%d (%.4f), completed in %s\n",
		total.Covered, total.Total, total.Recall(), time.Since(start).String())
}

// renderImage draws ground truth, grid and stitched detections on the image
// and writes it out
func renderImage(srcFile, dstFile string, cfg *gridseq.GridConfig,
	detections []postprocess.Rect, truth []postprocess.Truth,
	face *render.TTFFace) {

	img := gocv.IMRead(srcFile, gocv.IMReadColor)

	if img.Empty() {
		log.Printf("Error reading image %s, skipping render\n", srcFile)
		return
	}

	defer img.Close()

	render.GridLines(&img, cfg, render.Grey)
	render.TruthBoxes(&img, truth, render.Green, 1)

	if face != nil {
		if err := render.DetectionBoxesTTF(&img, detections, face, 2); err != nil {
			log.Printf("Error rendering labels on %s: %v\n", srcFile, err)
			return
		}
	} else {
		render.DetectionBoxes(&img, detections, render.DefaultFont(), 2)
	}

	if ok := gocv.IMWrite(dstFile, img); !ok {
		log.Printf("Error writing rendered image %s\n", dstFile)
	}
}
