package common

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default prompt instructions, used when the batch file does not supply
// its own.
const (
	DefaultLongPrompt = "Provide a detailed summary of this document covering its purpose, " +
		"key findings, figures from any tables, and conclusions."
	DefaultShortPrompt = "Provide a very concise summary of this document in 2-3 sentences."
)

// BatchFile describes one batch invocation: the ordered URL list plus
// the two prompt instructions and optional tuning.
type BatchFile struct {
	URLs        []string `yaml:"urls"`
	LongPrompt  string   `yaml:"long_prompt"`
	ShortPrompt string   `yaml:"short_prompt"`
	Workers     int      `yaml:"workers"`
}

// LoadBatchFile reads a batch description. YAML files (.yaml/.yml) may
// set prompts and worker count; anything else is treated as a plain
// text file with one URL per line (# starts a comment).
func LoadBatchFile(path string) (*BatchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	bf := &BatchFile{}
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		if err := yaml.Unmarshal(data, bf); err != nil {
			return nil, fmt.Errorf("parse batch file: %w", err)
		}
	} else {
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			bf.URLs = append(bf.URLs, line)
		}
	}

	if len(bf.URLs) == 0 {
		return nil, fmt.Errorf("batch file %s contains no URLs", path)
	}
	if bf.LongPrompt == "" {
		bf.LongPrompt = DefaultLongPrompt
	}
	if bf.ShortPrompt == "" {
		bf.ShortPrompt = DefaultShortPrompt
	}
	return bf, nil
}
