// Package pipeline implements the Markdown-to-HTML stage.
//
// The stage runs in three steps:
//   - source preprocessing (byte order mark, line endings)
//   - Markdown to HTML fragment via goldmark, with diagram code blocks
//     sanitized and wrapped in <pre class="mermaid"> and relative image and
//     link destinations resolved against the source directory
//   - page assembly: the fragment, the style sheet and the diagram library
//     bootstrap script rendered through an html/template page
//
// PDF capture is handled separately by the root convertmd package using
// headless Chrome (go-rod). This package never touches a browser.
package pipeline
