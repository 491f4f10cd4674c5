// Package svg serializes a scene graph to SVG markup.
package svg

import (
	"fmt"
	"strings"

	"github.com/visualizing-jp/prj-jcie-sub000/internal/scene"
)

// Render serializes the scene to a standalone SVG document.
func Render(s *scene.Scene) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		num(s.Width), num(s.Height), num(s.Width), num(s.Height))
	b.WriteString("\n")

	if s.Background != "" {
		fmt.Fprintf(&b, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", s.Background)
	}

	for _, n := range s.Nodes {
		writeNode(&b, n, 1)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

func writeNode(b *strings.Builder, n scene.Node, depth int) {
	pad := strings.Repeat("  ", depth)
	switch v := n.(type) {
	case *scene.Group:
		fmt.Fprintf(b, "%s<g", pad)
		if v.ID != "" {
			fmt.Fprintf(b, ` id="%s"`, escape(v.ID))
		}
		if v.Class != "" {
			fmt.Fprintf(b, ` class="%s"`, escape(v.Class))
		}
		if tf := groupTransform(v); tf != "" {
			fmt.Fprintf(b, ` transform="%s"`, tf)
		}
		writeOpacity(b, v.Opacity)
		b.WriteString(">\n")
		for _, c := range v.Children {
			writeNode(b, c, depth+1)
		}
		fmt.Fprintf(b, "%s</g>\n", pad)

	case *scene.Path:
		fmt.Fprintf(b, `%s<path d="%s"`, pad, pathData(v))
		writeClass(b, v.Class)
		fmt.Fprintf(b, ` fill="%s"`, orNone(v.Fill))
		if v.Stroke != "" {
			fmt.Fprintf(b, ` stroke="%s" stroke-width="%s"`, v.Stroke, num(v.StrokeWidth))
		}
		if v.DashArray > 0 {
			fmt.Fprintf(b, ` stroke-dasharray="%s" stroke-dashoffset="%s"`, num(v.DashArray), num(v.DashOffset))
		}
		writeOpacity(b, v.Opacity)
		b.WriteString("/>\n")

	case *scene.Rect:
		fmt.Fprintf(b, `%s<rect x="%s" y="%s" width="%s" height="%s"`, pad, num(v.X), num(v.Y), num(v.Width), num(v.Height))
		writeClass(b, v.Class)
		fmt.Fprintf(b, ` fill="%s"`, orNone(v.Fill))
		if v.Stroke != "" {
			fmt.Fprintf(b, ` stroke="%s"`, v.Stroke)
		}
		writeOpacity(b, v.Opacity)
		b.WriteString("/>\n")

	case *scene.Circle:
		fmt.Fprintf(b, `%s<circle cx="%s" cy="%s" r="%s"`, pad, num(v.CX), num(v.CY), num(v.R))
		if v.ID != "" {
			fmt.Fprintf(b, ` id="%s"`, escape(v.ID))
		}
		writeClass(b, v.Class)
		fmt.Fprintf(b, ` fill="%s"`, orNone(v.Fill))
		if v.Stroke != "" {
			fmt.Fprintf(b, ` stroke="%s"`, v.Stroke)
		}
		writeOpacity(b, v.Opacity)
		b.WriteString("/>\n")

	case *scene.Line:
		fmt.Fprintf(b, `%s<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"`,
			pad, num(v.X1), num(v.Y1), num(v.X2), num(v.Y2), orNone(v.Stroke), num(strokeWidth(v.StrokeWidth)))
		writeClass(b, v.Class)
		if v.Dashed {
			b.WriteString(` stroke-dasharray="4,3"`)
		}
		writeOpacity(b, v.Opacity)
		b.WriteString("/>\n")

	case *scene.Text:
		fmt.Fprintf(b, `%s<text x="%s" y="%s"`, pad, num(v.X), num(v.Y))
		writeClass(b, v.Class)
		if v.Fill != "" {
			fmt.Fprintf(b, ` fill="%s"`, v.Fill)
		}
		if v.FontSize > 0 {
			fmt.Fprintf(b, ` font-size="%s"`, num(v.FontSize))
		}
		if v.FontWeight != "" {
			fmt.Fprintf(b, ` font-weight="%s"`, v.FontWeight)
		}
		if v.Anchor != "" {
			fmt.Fprintf(b, ` text-anchor="%s"`, v.Anchor)
		}
		writeOpacity(b, v.Opacity)
		fmt.Fprintf(b, ">%s</text>\n", escape(v.Content))

	case *scene.Image:
		fmt.Fprintf(b, `%s<image x="%s" y="%s" width="%s" height="%s" href="%s"`,
			pad, num(v.X), num(v.Y), num(v.Width), num(v.Height), escape(v.Href))
		writeClass(b, v.Class)
		writeOpacity(b, v.Opacity)
		b.WriteString("/>\n")
	}
}

func groupTransform(g *scene.Group) string {
	var parts []string
	if g.Translate[0] != 0 || g.Translate[1] != 0 {
		parts = append(parts, fmt.Sprintf("translate(%s,%s)", num(g.Translate[0]), num(g.Translate[1])))
	}
	if g.Scale != 0 && g.Scale != 1 {
		parts = append(parts, fmt.Sprintf("scale(%s)", num(g.Scale)))
	}
	return strings.Join(parts, " ")
}

func pathData(p *scene.Path) string {
	var b strings.Builder
	for _, ring := range p.Rings {
		for i, pt := range ring {
			if i == 0 {
				fmt.Fprintf(&b, "M%s %s", num(pt[0]), num(pt[1]))
			} else {
				fmt.Fprintf(&b, "L%s %s", num(pt[0]), num(pt[1]))
			}
		}
		if p.Closed {
			b.WriteString("Z")
		}
	}
	return b.String()
}

func writeOpacity(b *strings.Builder, v float64) {
	if eff := scene.EffectiveOpacity(v); eff != 1 {
		fmt.Fprintf(b, ` opacity="%s"`, num(eff))
	}
}

func writeClass(b *strings.Builder, class string) {
	if class != "" {
		fmt.Fprintf(b, ` class="%s"`, escape(class))
	}
}

func strokeWidth(w float64) float64 {
	if w == 0 {
		return 1
	}
	return w
}

func orNone(color string) string {
	if color == "" {
		return "none"
	}
	return color
}

// num formats a coordinate compactly: integers without a decimal point,
// fractions with two digits.
func num(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}
