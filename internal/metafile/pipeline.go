package metafile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PipelineFile is the pipeline definition written by the external tool.
const PipelineFile = "dvc.yaml"

// PipelineStage is one registered stage of the pipeline file.
type PipelineStage struct {
	Name    string
	Cmd     string
	Deps    []string
	Outs    []string
	Params  []string
	Metrics []string
	Plots   []string
}

// ReadPipeline parses the pipeline file at path, keeping stage order.
// A missing file yields no stages.
func ReadPipeline(path string) ([]PipelineStage, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	stages := mappingValue(doc.Content[0], "stages")
	if stages == nil {
		return nil, nil
	}
	if stages.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse %s: stages must be a mapping", path)
	}
	var out []PipelineStage
	for i := 0; i+1 < len(stages.Content); i += 2 {
		name := stages.Content[i].Value
		s, err := parseStage(name, stages.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("parse %s: stage %s: %w", path, name, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func parseStage(name string, n *yaml.Node) (PipelineStage, error) {
	s := PipelineStage{Name: name}
	if n.Kind != yaml.MappingNode {
		return s, errors.New("expected a mapping")
	}
	if c := mappingValue(n, "cmd"); c != nil {
		switch c.Kind {
		case yaml.ScalarNode:
			s.Cmd = c.Value
		case yaml.SequenceNode:
			var parts []string
			for _, p := range c.Content {
				parts = append(parts, p.Value)
			}
			s.Cmd = strings.Join(parts, " && ")
		}
	}
	s.Deps = entryPaths(mappingValue(n, "deps"))
	s.Outs = entryPaths(mappingValue(n, "outs"))
	s.Params = entryPaths(mappingValue(n, "params"))
	s.Metrics = entryPaths(mappingValue(n, "metrics"))
	s.Plots = entryPaths(mappingValue(n, "plots"))
	return s, nil
}

// entryPaths returns the paths of a list whose items are either plain
// strings or single-key mappings of path to per-path flags.
func entryPaths(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	var out []string
	for _, it := range n.Content {
		switch it.Kind {
		case yaml.ScalarNode:
			out = append(out, it.Value)
		case yaml.MappingNode:
			for i := 0; i+1 < len(it.Content); i += 2 {
				out = append(out, it.Content[i].Value)
			}
		}
	}
	return out
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
