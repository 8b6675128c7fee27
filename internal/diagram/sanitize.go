package diagram

import (
	"regexp"
	"sort"
	"strings"
)

// Rule is a single named rewrite over diagram source text.
type Rule struct {
	Name  string
	Apply func(string) string
}

// rules run in this order. Escaping must stay last: earlier rules match on
// literal angle brackets.
var rules = []Rule{
	{Name: "normalize-stereotypes", Apply: NormalizeStereotypes},
	{Name: "clean-member-signatures", Apply: CleanMemberSignatures},
	{Name: "relocate-stereotypes", Apply: RelocateStereotypes},
	{Name: "name-containers", Apply: NameContainers},
	{Name: "escape-angle-brackets", Apply: EscapeAngleBrackets},
}

// Sanitize rewrites raw diagram source into a form the in-browser diagram
// library parses reliably and that is safe to embed inside an HTML element.
// It is pure: the same input always yields the same output.
func Sanitize(src string) string {
	for _, r := range rules {
		src = r.Apply(src)
	}
	return src
}

var (
	stereotypePattern     = regexp.MustCompile(`<<([^>]+)>>`)
	stereotypeSeparators  = regexp.MustCompile(`[\s/]+`)
	nullableMemberPattern = regexp.MustCompile(`(?m)^([ \t]*[+\-#~]?\w+)\?([ \t]+\w+)`)
	trailingReturnPattern = regexp.MustCompile(`(?m)(\(\))[ \t]+\w+$`)
	bodyStereotypePattern = regexp.MustCompile(`class\s+(\w+)\s*\{\s*\n\s*(<<[^>]+>>)\s*\n\s*\}`)
	containerDeclPattern  = regexp.MustCompile(`(?m)\bsubgraph[ \t]+([A-Za-z][A-Za-z0-9]*(?:[ \t]+[A-Za-z][A-Za-z0-9]*)+)([ \t\r]*)$`)
	containerIDSeparators = regexp.MustCompile(`\s+`)
	angleBracketsReplacer = strings.NewReplacer("<", "&lt;", ">", "&gt;")
)

// NormalizeStereotypes replaces every run of whitespace or slashes inside a
// <<...>> annotation with a single underscore.
func NormalizeStereotypes(src string) string {
	return stereotypePattern.ReplaceAllStringFunc(src, func(m string) string {
		inner := m[2 : len(m)-2]
		return "<<" + stereotypeSeparators.ReplaceAllString(inner, "_") + ">>"
	})
}

// CleanMemberSignatures drops the nullable marker from member names
// ("+id? int" becomes "+id int") and the return type trailing an empty
// parameter list ("save() bool" becomes "save()").
func CleanMemberSignatures(src string) string {
	src = nullableMemberPattern.ReplaceAllString(src, "${1}${2}")
	return trailingReturnPattern.ReplaceAllString(src, "${1}")
}

// RelocateStereotypes moves an annotation that is the sole content of a class
// body out of the body:
//
//	class Repo {        class Repo
//	  <<Interface>>  => <<Interface>> Repo
//	}
func RelocateStereotypes(src string) string {
	return bodyStereotypePattern.ReplaceAllString(src, "class $1\n$2 $1")
}

// Container is a multi-word subgraph name and the identifier that replaces it.
type Container struct {
	Name string
	ID   string
}

// NameContainers gives multi-word subgraphs a single-token identifier with the
// original name as label, then rewrites edges that reference the name.
func NameContainers(src string) string {
	src, containers := declareContainers(src)
	if len(containers) == 0 {
		return src
	}

	// Longest names first so "Payment Service" never rewrites part of
	// "Payment Service Gateway".
	sort.SliceStable(containers, func(i, j int) bool {
		return len(containers[i].Name) > len(containers[j].Name)
	})

	for _, c := range containers {
		name := regexp.QuoteMeta(c.Name)
		target := regexp.MustCompile(`(-->|---)[ \t]*` + name + `\b`)
		source := regexp.MustCompile(`\b` + name + `[ \t]*(-->|---)`)
		src = target.ReplaceAllString(src, "${1} "+c.ID)
		src = source.ReplaceAllString(src, c.ID+" ${1}")
	}
	return src
}

// declareContainers rewrites multi-word subgraph declarations and returns
// the names it found, in declaration order and without duplicates.
func declareContainers(src string) (string, []Container) {
	matches := containerDeclPattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, nil
	}

	var (
		b          strings.Builder
		last       int
		seen       = make(map[string]bool)
		containers []Container
	)
	b.Grow(len(src) + 16*len(matches))

	for _, m := range matches {
		name := src[m[2]:m[3]]
		trailing := src[m[4]:m[5]]
		id := containerIDSeparators.ReplaceAllString(name, "_")

		b.WriteString(src[last:m[0]])
		b.WriteString(`subgraph ` + id + `["` + name + `"]` + trailing)
		last = m[1]

		if !seen[name] {
			seen[name] = true
			containers = append(containers, Container{Name: name, ID: id})
		}
	}
	b.WriteString(src[last:])
	return b.String(), containers
}

// EscapeAngleBrackets replaces < and > with their HTML entities. The diagram
// library decodes them again when it reads the element's text.
func EscapeAngleBrackets(src string) string {
	return angleBracketsReplacer.Replace(src)
}
