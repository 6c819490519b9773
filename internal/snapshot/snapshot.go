// Package snapshot summarises what a page shows, for logging next to a
// failed step.
package snapshot

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const (
	maxVisibleText = 600
	maxElements    = 25
)

// Page is what a snapshot reads from.
type Page interface {
	URL() string
	Title() (string, error)
	Evaluate(expression string, arg any) (any, error)
}

// Element is one visible interactive node with a selector that finds it.
type Element struct {
	Role     string `json:"role"`
	Text     string `json:"text"`
	Selector string `json:"selector"`
	BBox     string `json:"bbox"`
}

// Summary is a compact view of the current page.
type Summary struct {
	URL      string
	Title    string
	Visible  string
	Elements []Element
}

type pageDump struct {
	Text     string    `json:"text"`
	Elements []Element `json:"elements"`
}

const script = `(limit) => {
	const pick = [];
	const nodes = document.querySelectorAll("a,button,input,select,textarea,[role],[onclick],[data-testid]");
	for (const el of nodes) {
		if (pick.length >= limit) break;
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 && rect.height === 0) continue;
		const role = el.getAttribute("role") || el.tagName.toLowerCase();
		const text = (el.innerText || el.value || el.getAttribute("aria-label") || "").trim().split("\n")[0].slice(0, 80);
		let sel = "";
		if (el.id) {
			sel = "#" + el.id;
		} else if (el.getAttribute("name")) {
			sel = el.tagName.toLowerCase() + "[name=\"" + el.getAttribute("name") + "\"]";
		} else if (el.getAttribute("data-testid")) {
			sel = "[data-testid=\"" + el.getAttribute("data-testid") + "\"]";
		} else if (text) {
			sel = el.tagName.toLowerCase() + ":has-text(\"" + text.replace(/"/g, "").slice(0, 40) + "\")";
		}
		const bbox = [rect.x, rect.y, rect.width, rect.height].map(Math.round).join(",");
		pick.push({role, text, selector: sel, bbox});
	}
	return {text: document.body ? document.body.innerText : "", elements: pick};
}`

// Collect reads the page. A page that cannot run scripts still yields its
// URL and title.
func Collect(ctx context.Context, page Page) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	s := Summary{URL: page.URL()}
	s.Title, _ = page.Title()

	val, err := page.Evaluate(script, maxElements*4)
	if err != nil {
		return s, fmt.Errorf("evaluate snapshot: %w", err)
	}
	raw, err := json.Marshal(val)
	if err != nil {
		return s, err
	}
	var dump pageDump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return s, fmt.Errorf("decode snapshot: %w", err)
	}
	s.Visible = truncate(strings.Join(strings.Fields(dump.Text), " "), maxVisibleText)
	s.Elements = rank(dump.Elements, maxElements)
	return s, nil
}

func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "URL: %s\nTITLE: %s\nTEXT: %s\nELEMENTS:\n", s.URL, s.Title, s.Visible)
	for i, el := range s.Elements {
		fmt.Fprintf(&b, "%d) %s %q -> %s\n", i+1, el.Role, el.Text, el.Selector)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n] + "…"
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// rank keeps the limit most useful elements, best first. Elements without a
// selector are dropped since a test could not target them.
func rank(elems []Element, limit int) []Element {
	type scored struct {
		el    Element
		score int
	}
	var out []scored
	for _, el := range elems {
		if el.Selector == "" {
			continue
		}
		out = append(out, scored{el: el, score: score(el)})
	}
	slices.SortStableFunc(out, func(a, b scored) int { return cmp.Compare(b.score, a.score) })
	if len(out) > limit {
		out = out[:limit]
	}
	res := make([]Element, 0, len(out))
	for _, s := range out {
		res = append(res, s.el)
	}
	return res
}

func score(el Element) int {
	n := 0
	switch {
	case strings.HasPrefix(el.Selector, "#"):
		n += 5
	case strings.Contains(el.Selector, "[name="), strings.Contains(el.Selector, "[data-testid="):
		n += 4
	}
	switch el.Role {
	case "button", "a", "input", "select", "textarea", "link", "checkbox":
		n += 3
	case "generic", "presentation", "none":
		n -= 2
	}
	if el.Text != "" {
		n += 2
	}
	return n
}
