package imageproc

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	defaultOpacity = 0.5
	defaultMargin  = 10
)

func applyWatermark(img image.Image, wm *WatermarkOptions) (image.Image, error) {
	opacity := wm.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = defaultOpacity
	}
	margin := wm.Margin
	if margin <= 0 {
		margin = defaultMargin
	}

	dst := imaging.Clone(img)
	if wm.Image != "" {
		mark, err := imaging.Open(wm.Image)
		if err != nil {
			return nil, fmt.Errorf("open watermark image: %w", err)
		}
		mb := mark.Bounds()
		pos := anchor(wm.Position, dst.Bounds(), mb.Dx(), mb.Dy(), margin)
		dst = imaging.Overlay(dst, mark, pos, opacity)
	}
	if wm.Text != "" {
		drawText(dst, wm.Text, wm.Position, opacity, margin)
	}
	return dst, nil
}

func drawText(dst *image.NRGBA, text, position string, opacity float64, margin int) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	height := metrics.Height.Ceil()

	pos := anchor(position, dst.Bounds(), width, height, margin)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.NRGBA{R: 255, G: 255, B: 255, A: uint8(opacity * 255)}),
		Face: face,
		Dot:  fixed.P(pos.X, pos.Y+metrics.Ascent.Ceil()),
	}
	d.DrawString(text)
}

// anchor returns the top-left corner for a w×h box placed at position inside bounds.
func anchor(position string, bounds image.Rectangle, w, h, margin int) image.Point {
	left := bounds.Min.X + margin
	right := bounds.Max.X - w - margin
	top := bounds.Min.Y + margin
	bottom := bounds.Max.Y - h - margin
	centerX := bounds.Min.X + (bounds.Dx()-w)/2
	centerY := bounds.Min.Y + (bounds.Dy()-h)/2

	switch strings.ToLower(strings.ReplaceAll(position, "_", "-")) {
	case "top-left":
		return image.Pt(left, top)
	case "top-right":
		return image.Pt(right, top)
	case "bottom-left":
		return image.Pt(left, bottom)
	case "center":
		return image.Pt(centerX, centerY)
	default:
		return image.Pt(right, bottom)
	}
}
