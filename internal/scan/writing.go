package scan

import "strings"

// SampleLine is one trimmed line of prose.
type SampleLine struct {
	Text string `json:"text" yaml:"text"`
}

// Sample is the content of one prose file.
type Sample struct {
	FileName string       `json:"fileName" yaml:"fileName"`
	Lines    []SampleLine `json:"lines" yaml:"lines"`
}

// CollectSamples reads every regular file directly inside dir. Lines are
// split on newlines and trimmed; subdirectories are ignored.
func CollectSamples(src Source, dir string) ([]Sample, error) {
	files, _, err := src.Entries(dir)
	if err != nil {
		return nil, err
	}

	samples := make([]Sample, 0, len(files))
	for _, file := range files {
		text, err := readAll(src, join(dir, file))
		if err != nil {
			return nil, err
		}
		raw := strings.Split(text, "\n")
		lines := make([]SampleLine, len(raw))
		for i, l := range raw {
			lines[i] = SampleLine{Text: strings.TrimSpace(l)}
		}
		samples = append(samples, Sample{FileName: file, Lines: lines})
	}
	return samples, nil
}
