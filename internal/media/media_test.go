package media

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/config"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
	"github.com/visualizing-jp/prj-jcie-sub000/internal/theme"
)

func writeTestPNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func layerImage(t *testing.T, r *ImageRenderer) *scene.Image {
	t.Helper()
	if len(r.root.Children) != 1 {
		t.Fatalf("layer has %d nodes, want 1", len(r.root.Children))
	}
	img, ok := r.root.Children[0].(*scene.Image)
	if !ok {
		t.Fatalf("layer node is %T", r.root.Children[0])
	}
	return img
}

func TestQRDataURI(t *testing.T) {
	uri, err := QRDataURI("https://example.org/polio", 128)
	if err != nil {
		t.Fatal(err)
	}
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(uri, prefix) {
		t.Fatalf("bad uri prefix: %.40s", uri)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, prefix))
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 128 || cfg.Height != 128 {
		t.Errorf("qr size %dx%d, want 128x128", cfg.Width, cfg.Height)
	}
}

func TestRenderQRSource(t *testing.T) {
	r := NewImageRenderer(960, 600, theme.Resolver{}, theme.Polio, "")
	err := r.Render(config.ImageSpec{Visible: true, Src: "qr:https://example.org", X: 10, Y: 20})
	if err != nil {
		t.Fatal(err)
	}
	img := layerImage(t, r)
	if !strings.HasPrefix(img.Href, "data:image/png;base64,") {
		t.Error("qr source not inlined as data uri")
	}
	if img.Width != defaultQRSize || img.Height != defaultQRSize {
		t.Errorf("qr defaults: %gx%g", img.Width, img.Height)
	}
	if img.Opacity != scene.Transparent {
		t.Error("image should start hidden before the fade")
	}
	r.Scheduler().Flush(fadeDuration)
	if img.Opacity != 1 {
		t.Error("fade did not complete")
	}
}

func TestRenderFileKeepsAspectRatio(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, mustMkdir(t, dir, theme.Tuberculosis)), "photo.png", 200, 100)

	r := NewImageRenderer(960, 600, theme.Resolver{}, theme.Tuberculosis, dir)
	if err := r.Render(config.ImageSpec{Visible: true, Src: "photo.png", Width: 400}); err != nil {
		t.Fatal(err)
	}
	img := layerImage(t, r)
	if img.Width != 400 || img.Height != 200 {
		t.Errorf("scaled size %gx%g, want 400x200", img.Width, img.Height)
	}

	if err := r.Render(config.ImageSpec{Visible: true, Src: "photo.png"}); err != nil {
		t.Fatal(err)
	}
	img = layerImage(t, r)
	if img.Width != 200 || img.Height != 100 {
		t.Errorf("intrinsic size %gx%g, want 200x100", img.Width, img.Height)
	}
}

func mustMkdir(t *testing.T, base, name string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(base, name), 0755); err != nil {
		t.Fatal(err)
	}
	return name
}

func TestRenderMissingFile(t *testing.T) {
	r := NewImageRenderer(960, 600, theme.Resolver{}, theme.Tuberculosis, t.TempDir())
	if err := r.Render(config.ImageSpec{Visible: true, Src: "nope.png"}); err == nil {
		t.Error("missing file should error")
	}
	if len(r.root.Children) != 0 {
		t.Error("failed render left nodes in the layer")
	}
}

func TestRenderInvisibleClearsLayer(t *testing.T) {
	r := NewImageRenderer(960, 600, theme.Resolver{}, theme.Polio, "")
	if err := r.Render(config.ImageSpec{Visible: true, Src: "qr:x"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(config.ImageSpec{}); err != nil {
		t.Fatal(err)
	}
	if len(r.root.Children) != 0 {
		t.Error("invisible spec did not clear the layer")
	}
}

func TestDestroyCancelsFade(t *testing.T) {
	r := NewImageRenderer(960, 600, theme.Resolver{}, theme.Polio, "")
	if err := r.Render(config.ImageSpec{Visible: true, Src: "qr:x"}); err != nil {
		t.Fatal(err)
	}
	img := layerImage(t, r)
	r.Destroy()
	r.Scheduler().Flush(10)
	if img.Opacity != scene.Transparent {
		t.Error("cancelled fade still fired")
	}
	if len(r.root.Children) != 0 {
		t.Error("destroy left nodes behind")
	}
}
