package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	"github.com/gridseq/go-gridseq/postprocess"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TTFFace wraps a parsed TTF font face used for drawing detection labels.
// The Hershey fonts used by Font only cover Latin characters, a TTF face
// renders any glyphs the font file provides.
type TTFFace struct {
	face font.Face
	// Color of rendered text
	Color color.RGBA
}

// LoadTTFFace loads a TTF font file and creates a font face at the given
// point size
func LoadTTFFace(fontPath string, size float64) (*TTFFace, error) {

	// load font data
	fontBytes, err := os.ReadFile(fontPath)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	// parse the font
	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	// create a type face
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return &TTFFace{face: face, Color: White}, nil
}

// Close releases the resources held by the font face
func (t *TTFFace) Close() error {
	return t.face.Close()
}

// PutText writes text on the image at the given position using the TTF
// font face.  This is slower than the Hershey path in DetectionBoxes as it
// rasterises onto an RGBA overlay first.
func (t *TTFFace) PutText(img *gocv.Mat, text string, x, y int) error {

	// create image with text writing
	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}),
		image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(t.Color),
		Face: t.face,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(x * 64),
			Y: fixed.Int26_6(y * 64),
		},
	}
	dr.DrawString(text)

	// Convert image.RGBA to gocv.Mat
	imgRGBA, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(), rgba.Bounds().Dx(),
		gocv.MatTypeCV8UC4, rgba.Pix)

	if imgRGBA.Empty() || err != nil {
		return fmt.Errorf("error creating Mat from RGBA")
	}

	defer imgRGBA.Close()

	gocv.CvtColor(imgRGBA, &imgRGBA, gocv.ColorRGBAToBGR)
	gocv.AddWeighted(*img, 1.0, imgRGBA, 1.0, 0, img)

	return nil
}

// DetectionBoxesTTF renders the stitched detection boxes with their
// consolidated confidence labels drawn using a TTF font face instead of the
// built in Hershey fonts
func DetectionBoxesTTF(img *gocv.Mat, detections []postprocess.Rect,
	face *TTFFace, lineThickness int) error {

	for i := range detections {

		useClr := boxColors[i%len(boxColors)]

		x1, y1, x2, y2 := detections[i].Corners()
		rect := image.Rect(int(x1), int(y1), int(x2), int(y2))
		gocv.Rectangle(img, rect, useClr, lineThickness)

		text := fmt.Sprintf("%.2f", detections[i].TrueConfidence)

		err := face.PutText(img, text, rect.Min.X+4, rect.Min.Y-6)

		if err != nil {
			return fmt.Errorf("error drawing label: %w", err)
		}
	}

	return nil
}
