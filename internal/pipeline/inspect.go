package pipeline

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DiagramSummary describes the diagram blocks found in rendered HTML.
type DiagramSummary struct {
	Blocks int
	// Kinds holds the first word of each block (graph, classDiagram, ...).
	Kinds []string
}

// InspectDiagrams counts the diagram blocks in an HTML document or fragment.
func InspectDiagrams(htmlContent string) (DiagramSummary, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return DiagramSummary{}, fmt.Errorf("parsing HTML: %w", err)
	}

	var s DiagramSummary
	doc.Find("pre." + DiagramClass).Each(func(_ int, sel *goquery.Selection) {
		s.Blocks++
		if fields := strings.Fields(sel.Text()); len(fields) > 0 {
			s.Kinds = append(s.Kinds, fields[0])
		}
	})
	return s, nil
}
