// Package diagram sanitizes Mermaid diagram source before it is embedded in an
// HTML page.
//
// Sanitization is an ordered list of pure string rewrites:
//
//  1. stereotype annotations (<<Data Access>> becomes <<Data_Access>>)
//  2. class member signatures (nullable markers and trailing return types)
//  3. annotations that are the sole content of a class body
//  4. multi-word subgraph names and the edges that reference them
//  5. HTML escaping of angle brackets
//
// Each rule is exported so it can be exercised on its own. Sanitize applies
// them in order and never returns a literal '<' or '>'.
package diagram
