package vtree

import (
	"fmt"
	"strings"
)

// Path is the serializable identity of a node: an absolute XPath such as
// /html/body/div[2]/ul/li[3]. It survives crossing a process boundary and is
// re-resolved against a live tree on demand.
type Path string

// PathOf computes the XPath of n by walking up to the root. Tags are
// lower-cased and a position predicate is only emitted when the parent has
// more than one child with the same tag.
func PathOf(n Node) Path {
	if n == nil {
		return ""
	}
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent() {
		parts = append(parts, step(cur))
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(parts[i])
	}
	return Path(b.String())
}

func step(n Node) string {
	name := strings.ToLower(n.Tag())
	parent := n.Parent()
	if parent == nil {
		return name
	}
	idx, total := 0, 0
	for _, sib := range parent.Children() {
		if !strings.EqualFold(sib.Tag(), name) {
			continue
		}
		total++
		if sib == n {
			idx = total
		}
	}
	if total > 1 {
		return fmt.Sprintf("%s[%d]", name, idx)
	}
	return name
}
