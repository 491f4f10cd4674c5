// Package media renders the per-step image overlay. Sources are regular
// raster files resolved through the theme directory, or generated QR codes
// for "qr:" sources.
package media

import (
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/anim"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/theme"
)

// QRPrefix marks an image source that should be rendered as a QR code of
// the remaining string instead of loaded from disk.
const QRPrefix = "qr:"

const (
	fadeDuration  = 0.5
	defaultQRSize = 256
)

// QRDataURI encodes content as a QR code PNG and returns it as a data URI,
// ready for an image href.
func QRDataURI(content string, size int) (string, error) {
	if size <= 0 {
		size = defaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("encoding qr code: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ImageRenderer owns the image layer of the canvas.
type ImageRenderer struct {
	width, height float64
	th            theme.Resolver
	disease       string
	dataDir       string

	sched *anim.Scheduler
	root  *scene.Group
}

// NewImageRenderer creates an empty image layer. dataDir is the root the
// theme-relative asset paths resolve against.
func NewImageRenderer(width, height float64, th theme.Resolver, disease, dataDir string) *ImageRenderer {
	return &ImageRenderer{
		width:   width,
		height:  height,
		th:      th,
		disease: disease,
		dataDir: dataDir,
		sched:   anim.NewScheduler(),
		root:    &scene.Group{Class: "step-image"},
	}
}

// Scene returns the image layer subtree.
func (r *ImageRenderer) Scene() scene.Node { return r.root }

// Scheduler exposes the fade animation scheduler.
func (r *ImageRenderer) Scheduler() *anim.Scheduler { return r.sched }

// Render replaces the layer content with the step's image, fading it in.
// An empty or invisible spec clears the layer.
func (r *ImageRenderer) Render(spec config.ImageSpec) error {
	r.sched.CancelAll()
	r.root.Children = nil

	if !spec.Visible || spec.Src == "" {
		return nil
	}

	href := spec.Src
	w, h := spec.Width, spec.Height

	if strings.HasPrefix(spec.Src, QRPrefix) {
		content := strings.TrimPrefix(spec.Src, QRPrefix)
		size := int(w)
		uri, err := QRDataURI(content, size)
		if err != nil {
			return err
		}
		href = uri
		if w == 0 {
			w = defaultQRSize
		}
		if h == 0 {
			h = w
		}
	} else if !strings.HasPrefix(href, "data:") {
		path := r.th.ResolvePath(href, r.disease)
		if !filepath.IsAbs(path) {
			path = filepath.Join(r.dataDir, path)
		}
		iw, ih, err := probeSize(path)
		if err != nil {
			return fmt.Errorf("loading image %s: %w", spec.Src, err)
		}
		// Missing dimensions come from the file, one-sided ones keep the
		// aspect ratio.
		switch {
		case w == 0 && h == 0:
			w, h = iw, ih
		case w == 0:
			w = h * iw / ih
		case h == 0:
			h = w * ih / iw
		}
		href = path
	}

	img := &scene.Image{
		Class:   "step-image",
		X:       spec.X,
		Y:       spec.Y,
		Width:   w,
		Height:  h,
		Href:    href,
		Opacity: scene.Transparent,
	}
	r.root.Children = append(r.root.Children, img)
	r.sched.After(fadeDuration, func() { img.Opacity = 1 })
	return nil
}

// Resize updates the canvas bounds. Image placement is absolute, so only
// the stored size changes.
func (r *ImageRenderer) Resize(width, height float64) {
	r.width, r.height = width, height
}

// Destroy cancels the fade and clears the layer.
func (r *ImageRenderer) Destroy() {
	r.sched.CancelAll()
	r.root.Children = nil
}

// probeSize reads image dimensions without decoding the pixels.
func probeSize(path string) (float64, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return float64(cfg.Width), float64(cfg.Height), nil
}
