package extract

import (
	"fmt"
	"hoyocodes-backend/lib/htmlutil"
	"regexp"
	"strings"
)

// WikiOptions configures the wiki strategy, which reads code rows out of raw MediaWiki markup.
type WikiOptions struct {
	RowTemplate     string
	ExcludedServers []string
}

const itemListTemplate = "item list"

type wikiNodeKind int

const (
	wikiText wikiNodeKind = iota
	wikiComment
	wikiTemplate
)

type wikiNode struct {
	kind     wikiNodeKind
	text     string
	template wikiTemplateCall
}

type wikiTemplateCall struct {
	name       string
	positional []string
	named      map[string]string
}

// field returns the first non-empty named parameter among keys, falling back to the
// positional parameter at position (1-based, 0 to disable).
func (t wikiTemplateCall) field(position int, keys ...string) string {
	for _, k := range keys {
		if v := t.named[k]; v != "" {
			return v
		}
	}
	if position > 0 && position <= len(t.positional) {
		return t.positional[position-1]
	}
	return ""
}

func normalizeTemplateName(name string) string {
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// tokenizeWiki splits markup into a flat sequence of text, comments and top-level templates.
func tokenizeWiki(src string) []wikiNode {
	var nodes []wikiNode
	var text strings.Builder
	flush := func() {
		if text.Len() > 0 {
			nodes = append(nodes, wikiNode{kind: wikiText, text: text.String()})
			text.Reset()
		}
	}

	for i := 0; i < len(src); {
		switch {
		case strings.HasPrefix(src[i:], "<!--"):
			flush()
			body := src[i+4:]
			end := strings.Index(body, "-->")
			if end < 0 {
				nodes = append(nodes, wikiNode{kind: wikiComment, text: body})
				i = len(src)
				continue
			}
			nodes = append(nodes, wikiNode{kind: wikiComment, text: body[:end]})
			i += 4 + end + 3
		case strings.HasPrefix(src[i:], "{{"):
			end := closingBraces(src, i)
			if end < 0 {
				text.WriteString(src[i:])
				i = len(src)
				continue
			}
			flush()
			nodes = append(nodes, wikiNode{
				kind:     wikiTemplate,
				template: parseTemplateCall(src[i+2 : end-2]),
			})
			i = end
		default:
			text.WriteByte(src[i])
			i++
		}
	}
	flush()
	return nodes
}

// closingBraces returns the index right after the "}}" closing the "{{" at start, or -1.
func closingBraces(src string, start int) int {
	depth := 0
	for i := start; i+1 < len(src); {
		switch {
		case src[i] == '{' && src[i+1] == '{':
			depth++
			i += 2
		case src[i] == '}' && src[i+1] == '}':
			depth--
			i += 2
			if depth == 0 {
				return i
			}
		default:
			i++
		}
	}
	return -1
}

// splitTopLevel splits s on sep, ignoring separators nested in templates or links.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	last := 0
	for i := 0; i < len(s); i++ {
		if i+1 < len(s) {
			pair := s[i : i+2]
			if pair == "{{" || pair == "[[" {
				depth++
				i++
				continue
			}
			if (pair == "}}" || pair == "]]") && depth > 0 {
				depth--
				i++
				continue
			}
		}
		if s[i] == sep && depth == 0 {
			parts = append(parts, s[last:i])
			last = i + 1
		}
	}
	return append(parts, s[last:])
}

func parseTemplateCall(body string) wikiTemplateCall {
	parts := splitTopLevel(body, '|')
	call := wikiTemplateCall{
		name:  normalizeTemplateName(parts[0]),
		named: map[string]string{},
	}
	for _, part := range parts[1:] {
		kv := splitTopLevel(part, '=')
		if len(kv) > 1 {
			key := strings.ToLower(strings.TrimSpace(kv[0]))
			if key != "" {
				call.named[key] = strings.TrimSpace(strings.Join(kv[1:], "="))
				continue
			}
		}
		call.positional = append(call.positional, strings.TrimSpace(part))
	}
	return call
}

// wikiScan is the state carried while folding over the node sequence, rows are only
// collected while the active flag is set.
type wikiScan struct {
	active bool
	rows   []wikiTemplateCall
}

func (s wikiScan) step(node wikiNode, rowTemplate string) wikiScan {
	switch node.kind {
	case wikiComment:
		marker := strings.ToLower(strings.TrimSpace(node.text))
		switch {
		case strings.HasPrefix(marker, "active"):
			s.active = true
		case strings.HasPrefix(marker, "expired"):
			s.active = false
		}
	case wikiTemplate:
		if s.active && node.template.name == rowTemplate {
			s.rows = append(s.rows, node.template)
		}
	}
	return s
}

func extractWiki(content string, opts WikiOptions) ([]pair, error) {
	nodes := tokenizeWiki(content)
	rowTemplate := normalizeTemplateName(opts.RowTemplate)

	scan := wikiScan{}
	sawRowTemplate := false
	for _, node := range nodes {
		if node.kind == wikiTemplate && node.template.name == rowTemplate {
			sawRowTemplate = true
		}
		scan = scan.step(node, rowTemplate)
	}
	if !sawRowTemplate {
		return nil, fmt.Errorf("no %q templates found", opts.RowTemplate)
	}

	var out []pair
	for _, row := range scan.rows {
		if row.field(0, "notacode") != "" {
			continue
		}
		if isExcludedServer(row.field(0, "server"), opts.ExcludedServers) {
			continue
		}
		code := stripWikiLinks(row.field(1, "code"))
		if code == "" {
			continue
		}
		out = append(out, pair{
			code:    code,
			rewards: renderWikiRewards(row.field(2, "rewards", "items")),
		})
	}
	return out, nil
}

func isExcludedServer(server string, excluded []string) bool {
	server = strings.TrimSpace(server)
	for _, e := range excluded {
		if strings.EqualFold(server, e) {
			return true
		}
	}
	return false
}

var wikiLinkRegex = regexp.MustCompile(`\[\[(?:[^\]|]*\|)?([^\]|]*)\]\]`)

func stripWikiLinks(s string) string {
	return htmlutil.CleanText(wikiLinkRegex.ReplaceAllString(s, "$1"))
}

// renderWikiRewards renders reward markup as plain text, unpacking item list templates.
func renderWikiRewards(value string) string {
	var parts []string
	for _, node := range tokenizeWiki(value) {
		switch node.kind {
		case wikiText:
			if text := stripWikiLinks(node.text); text != "" {
				parts = append(parts, text)
			}
		case wikiTemplate:
			if node.template.name != itemListTemplate {
				continue
			}
			if items := unpackItemList(node.template.field(1, "items")); items != "" {
				parts = append(parts, items)
			}
		}
	}
	return strings.Join(parts, ", ")
}

// unpackItemList renders "Name*Qty;Other*Qty" as "Name xQty, Other xQty".
func unpackItemList(list string) string {
	var items []string
	for _, entry := range strings.Split(list, ";") {
		name, quantity, _ := strings.Cut(entry, "*")
		name = stripWikiLinks(name)
		quantity = strings.TrimSpace(quantity)
		if name == "" {
			continue
		}
		if quantity == "" {
			items = append(items, name)
			continue
		}
		items = append(items, fmt.Sprintf("%s x%s", name, quantity))
	}
	return strings.Join(items, ", ")
}
