package flamegraph

import (
	"fmt"
	"hash/fnv"
	"io"
	"strings"

	"github.com/ourovoros-io/dyno/internal/errstack"
)

// node is one rectangle in the flamegraph tree: a stack frame, its
// sample count, and its children keyed by frame name.
type node struct {
	name     string
	value    int
	children map[string]*node
	order    []string
}

func newNode(name string) *node {
	return &node{name: name, children: map[string]*node{}}
}

func (n *node) child(name string) *node {
	c, ok := n.children[name]
	if !ok {
		c = newNode(name)
		n.children[name] = c
		n.order = append(n.order, name)
	}
	return c
}

const (
	cellHeight = 16
	fontSize   = 11
)

// Render draws folded stacks as an interactive-looking SVG flamegraph
// (stacked rectangles, width proportional to sample count, depth
// downward from the root), in the spirit of Brendan Gregg's
// flamegraph.pl output.
func Render(folded Folded, w io.Writer) error {
	root := newNode("root")
	total := 0

	lines := strings.Split(strings.TrimRight(string(folded), "\n"), "\n")
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		sp := strings.LastIndex(line, " ")
		if sp < 0 {
			continue
		}
		stack := line[:sp]
		var count int
		if _, err := fmt.Sscanf(line[sp+1:], "%d", &count); err != nil || count <= 0 {
			continue
		}
		total += count

		cur := root
		for _, frame := range strings.Split(stack, ";") {
			if frame == "" {
				continue
			}
			cur = cur.child(frame)
			cur.value += count
		}
	}

	if total == 0 {
		total = 1
	}

	maxDepth := depth(root)
	width := 1200
	height := (maxDepth + 2) * cellHeight

	fmt.Fprintf(w, `<?xml version="1.0" standalone="no"?>`+"\n")
	fmt.Fprintf(w, `<svg version="1.1" width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+"\n", width, height)
	fmt.Fprintf(w, `<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`+"\n", width, height)

	x := 0.0
	for _, childName := range root.order {
		c := root.children[childName]
		w2 := float64(width) * float64(c.value) / float64(total)
		if err := renderNode(w, c, x, 0, float64(width), total); err != nil {
			return err
		}
		x += w2
	}

	fmt.Fprintln(w, `</svg>`)
	return nil
}

func depth(n *node) int {
	max := 0
	for _, c := range n.children {
		if d := depth(c); d+1 > max {
			max = d + 1
		}
	}
	return max
}

// renderNode draws n and its descendants. totalWidth and total are the
// figure's fixed pixel width and root sample count; every rectangle's
// width is n.value/total of totalWidth, so depth never rescales the
// horizontal axis (the defining property of a flamegraph).
func renderNode(w io.Writer, n *node, x0 float64, level int, totalWidth float64, total int) error {
	frac := float64(n.value) / float64(total)
	width := frac * totalWidth
	if width < 0.1 {
		return nil
	}

	y := level * cellHeight
	color := colorFor(n.name)
	label := escapeXML(n.name)

	if _, err := fmt.Fprintf(w,
		`<g><title>%s (%d samples, %.2f%%)</title><rect x="%.2f" y="%d" width="%.2f" height="%d" fill="%s" stroke="white"/>`,
		label, n.value, frac*100, x0, y, width, cellHeight, color,
	); err != nil {
		return errstack.Wrap(err, "writing flamegraph rect")
	}
	if width > 40 {
		if _, err := fmt.Fprintf(w, `<text x="%.2f" y="%d" font-size="%d" font-family="monospace">%s</text>`,
			x0+2, y+cellHeight-4, fontSize, truncateLabel(label, width)); err != nil {
			return errstack.Wrap(err, "writing flamegraph label")
		}
	}
	fmt.Fprintln(w, "</g>")

	childX := x0
	for _, childName := range n.order {
		c := n.children[childName]
		if err := renderNode(w, c, childX, level+1, totalWidth, total); err != nil {
			return err
		}
		childX += totalWidth * float64(c.value) / float64(total)
	}
	return nil
}

// colorFor derives a stable warm hue from the frame name, the way
// flamegraph.pl's default "hot" palette assigns pseudo-random but
// repeatable colors per function name.
func colorFor(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	v := h.Sum32()
	r := 200 + v%55
	g := 50 + (v/7)%150
	b := 20 + (v/13)%60
	return fmt.Sprintf("rgb(%d,%d,%d)", r, g, b)
}

func truncateLabel(label string, width float64) string {
	maxChars := int(width / 7)
	if maxChars <= 0 {
		return ""
	}
	if len(label) <= maxChars {
		return label
	}
	if maxChars <= 1 {
		return ""
	}
	return label[:maxChars-1] + "…"
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
