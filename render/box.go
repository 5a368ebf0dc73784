package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gridseq/go-gridseq"
	"github.com/gridseq/go-gridseq/postprocess"
	"gocv.io/x/gocv"
)

// boxLabel records the details of a confidence label to draw over a box
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// DetectionBoxes renders the stitched detection boxes and their consolidated
// confidences on the image
func DetectionBoxes(img *gocv.Mat, detections []postprocess.Rect,
	font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0)

	for i := range detections {

		useClr := boxColors[i%len(boxColors)]

		x1, y1, x2, y2 := detections[i].Corners()
		rect := image.Rect(int(x1), int(y1), int(x2), int(y2))
		gocv.Rectangle(img, rect, useClr, lineThickness)

		// create text for the consolidated confidence label
		text := fmt.Sprintf("%.2f", detections[i].TrueConfidence)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		centerX := rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)

		labelPosition := image.Pt(centerX-textSize.X/2, rect.Min.Y-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			rect.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, rect.Min.Y)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		})
	}

	// draw all precalculated box labels so they are the top most layer on
	// the image and don't get overlapped by neighbouring boxes
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// TruthBoxes renders the ground truth annotation boxes on the image
func TruthBoxes(img *gocv.Mat, truth []postprocess.Truth, clr color.RGBA,
	lineThickness int) {

	for _, t := range truth {
		rect := image.Rect(int(t.X1), int(t.Y1), int(t.X2), int(t.Y2))
		gocv.Rectangle(img, rect, clr, lineThickness)
	}
}

// GridLines overlays the detection grid cell boundaries on the image
func GridLines(img *gocv.Mat, cfg *gridseq.GridConfig, clr color.RGBA) {

	pixPerW := cfg.PixelsPerCellW()
	pixPerH := cfg.PixelsPerCellH()

	for x := 1; x < cfg.GridWidth; x++ {
		px := int(pixPerW * float32(x))
		gocv.Line(img, image.Pt(px, 0), image.Pt(px, cfg.ImgHeight), clr, 1)
	}

	for y := 1; y < cfg.GridHeight; y++ {
		py := int(pixPerH * float32(y))
		gocv.Line(img, image.Pt(0, py), image.Pt(cfg.ImgWidth, py), clr, 1)
	}
}
