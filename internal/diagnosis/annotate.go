package diagnosis

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/melonguard/melonguard-go/internal/detector"
)

var boxColor = color.RGBA{R: 255, A: 255}

const boxThickness = 2

// cloneImage returns a mutable RGBA copy of the input.
func cloneImage(img image.Image) *image.RGBA {
	if img == nil {
		return nil
	}
	bounds := img.Bounds()
	clone := image.NewRGBA(bounds)
	draw.Draw(clone, bounds, img, bounds.Min, draw.Src)
	return clone
}

// drawDetection burns the detection's bounding box and label into the image.
func drawDetection(img *image.RGBA, det detector.Detection) {
	if img == nil {
		return
	}
	drawRect(img, det.Box, boxColor, boxThickness)

	text := fmt.Sprintf("%s: %.2f", det.Label, det.Confidence)
	// Label sits above the box, clamped so it stays inside the frame.
	textY := det.Box.Min.Y - 5
	if textY < img.Bounds().Min.Y+basicfont.Face7x13.Height {
		textY = img.Bounds().Min.Y + basicfont.Face7x13.Height + 2
	}
	drawLabel(img, det.Box.Min.X, textY, text)
}

// drawRect draws an axis aligned rectangle outline of the given thickness.
func drawRect(img *image.RGBA, rect image.Rectangle, c color.RGBA, thickness int) {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	for t := 0; t < thickness; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			setPixel(img, x, rect.Min.Y+t, c)
			setPixel(img, x, rect.Max.Y-1-t, c)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			setPixel(img, rect.Min.X+t, y, c)
			setPixel(img, rect.Max.X-1-t, y, c)
		}
	}
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// drawLabel renders text at the given baseline position.
func drawLabel(img *image.RGBA, x, y int, text string) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(boxColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}
