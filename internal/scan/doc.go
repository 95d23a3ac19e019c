// Package scan reads source trees for the switchboard services. It holds the
// plain, stateless collaborators: a filesystem view that enumerates
// directories and opens files, an indentation analyzer for code, and a line
// collector for prose samples.
//
// Everything goes through an afero.Fs so callers (and tests) choose the
// backing filesystem:
//
//	tree := scan.NewTree(afero.NewOsFs())
//	langs, err := scan.AnalyzeCode(ctx, tree, "code", 4)
package scan
