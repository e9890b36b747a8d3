// Package rules provides the built-in lint rules for atclint.
//
// # Rule Domains
//
// Layout (style band, ATC2xx):
//
//   - ATC201: parameter-layout - Parameter lists stay on one line while they
//     fit, otherwise one parameter per line
//   - ATC202: method-chain-separation - Chained calls start on their own
//     line, except the call directly after a connector such as Should()
//   - ATC203: interpolation-chain - Method chains inside interpolation holes
//     should be extracted into a local
//   - ATC204: expression-body - Single-expression members use "=>" bodies,
//     with the arrow placed by line length
//   - ATC205: blank-line-between-blocks - Exactly one blank line between
//     sibling block statements, none between clauses
//
// Using directives (usage band, ATC3xx):
//
//   - ATC301: global-usings - Every plain using belongs in the global usings
//     file (off by default)
//   - ATC302: scoped-global-usings - Usings under the configured prefixes
//     belong in the global usings file
//
// Performance (ATC4xx):
//
//   - ATC401: redundant-regex-compiled - RegexOptions.Compiled is redundant
//     on GeneratedRegex
//
// # Fixes
//
// Every rule except ATC301/ATC302 without a configured global usings file
// offers a fix. Fixes are built from byte-range edits on the snapshot the
// rule saw; a rule never offers a fix that would move or drop comments.
// ATC301 and ATC302 fixes touch two files and are applied atomically by the
// lint pipeline.
//
// # Registration
//
// There is no package-level registry. Use NewDefaultRegistry, or
// RegisterAll to add the rules to a registry of your own.
package rules
