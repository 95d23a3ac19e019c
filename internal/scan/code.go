package scan

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Line is one line of a source file.
type Line struct {
	Number int    `json:"number" yaml:"number"`
	Indent int    `json:"indent" yaml:"indent"`
	Code   string `json:"code" yaml:"code"`
}

// SourceFile is a scanned file.
type SourceFile struct {
	FileName string `json:"fileName" yaml:"fileName"`
	Lines    []Line `json:"linesOfCode" yaml:"linesOfCode"`
}

// Language groups the files of one language directory.
type Language struct {
	Name  string       `json:"languageName" yaml:"languageName"`
	Files []SourceFile `json:"sourceFiles" yaml:"sourceFiles"`
}

// AnalyzeCode treats each subdirectory of root as a language and scans every
// regular file inside it. At most workers directories are read concurrently;
// results keep the sorted directory order.
func AnalyzeCode(ctx context.Context, src Source, root string, workers int) ([]Language, error) {
	_, langs, err := src.Entries(root)
	if err != nil {
		return nil, err
	}

	out := make([]Language, len(langs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, name := range langs {
		g.Go(func() error {
			lang, err := analyzeLanguage(ctx, src, join(root, name), name)
			if err != nil {
				return err
			}
			out[i] = lang
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func analyzeLanguage(ctx context.Context, src Source, dir, name string) (Language, error) {
	files, _, err := src.Entries(dir)
	if err != nil {
		return Language{}, err
	}

	lang := Language{Name: name, Files: make([]SourceFile, 0, len(files))}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return Language{}, err
		}
		text, err := readAll(src, join(dir, file))
		if err != nil {
			return Language{}, err
		}
		lang.Files = append(lang.Files, SourceFile{FileName: file, Lines: SplitLines(text)})
	}
	return lang, nil
}

// SplitLines numbers the lines of text from 0 and measures their indentation.
func SplitLines(text string) []Line {
	raw := strings.Split(text, "\n")
	lines := make([]Line, len(raw))
	for i, code := range raw {
		lines[i] = Line{Number: i, Indent: IndentLevel(code), Code: code}
	}
	return lines
}

// IndentLevel guesses the nesting depth of a line. Leading spaces count as
// four-wide indents when their number is a multiple of four and as two-wide
// indents otherwise; without leading spaces, each leading tab is one level.
func IndentLevel(line string) int {
	if spaces := leading(line, ' '); spaces > 0 {
		if spaces%4 == 0 {
			return spaces / 4
		}
		return spaces / 2
	}
	return leading(line, '\t')
}

func leading(s string, c byte) int {
	n := 0
	for n < len(s) && s[n] == c {
		n++
	}
	return n
}
