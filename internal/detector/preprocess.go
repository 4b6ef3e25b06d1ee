package detector

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// letterboxTransform records how a source image was mapped into the model's
// square input so detections can be mapped back.
type letterboxTransform struct {
	scale float64 // source pixels multiplied by scale give input pixels
	padX  int     // horizontal padding on the left of the input
	padY  int     // vertical padding on the top of the input
}

// letterbox scales the image into a size x size square preserving aspect
// ratio, pads the remainder with gray, and returns the result as a normalized
// NHWC float32 tensor together with the applied transform.
func letterbox(img image.Image, size int) ([]float32, letterboxTransform) {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	scale := float64(size) / float64(srcW)
	if s := float64(size) / float64(srcH); s < scale {
		scale = s
	}
	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	padX := (size - dstW) / 2
	padY := (size - dstH) / 2

	canvas := image.NewRGBA(image.Rect(0, 0, size, size))
	gray := color.RGBA{114, 114, 114, 255}
	for i := 0; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = gray.R
		canvas.Pix[i+1] = gray.G
		canvas.Pix[i+2] = gray.B
		canvas.Pix[i+3] = gray.A
	}

	dstRect := image.Rect(padX, padY, padX+dstW, padY+dstH)
	xdraw.ApproxBiLinear.Scale(canvas, dstRect, img, bounds, xdraw.Over, nil)

	data := make([]float32, size*size*3)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			off := canvas.PixOffset(x, y)
			idx := (y*size + x) * 3
			data[idx] = float32(canvas.Pix[off]) / 255.0
			data[idx+1] = float32(canvas.Pix[off+1]) / 255.0
			data[idx+2] = float32(canvas.Pix[off+2]) / 255.0
		}
	}

	return data, letterboxTransform{scale: scale, padX: padX, padY: padY}
}
