package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/antoniostano/todobot/internal/todo"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Codec converts a snapshot to and from the persisted document.
type Codec interface {
	Encode(snap todo.Snapshot) ([]byte, error)
	Decode(data []byte) (todo.Snapshot, error)
	Name() string
}

func NewCodec(format string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return jsonCodec{}, nil
	case FormatYAML, "yml":
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown store format %q (expected json|yaml)", format)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return FormatJSON }

func (jsonCodec) Encode(snap todo.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = todo.Snapshot{}
	}
	return json.MarshalIndent(snap, "", "    ")
}

func (jsonCodec) Decode(data []byte) (todo.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	var snap todo.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return FormatYAML }

func (yamlCodec) Encode(snap todo.Snapshot) ([]byte, error) {
	if snap == nil {
		snap = todo.Snapshot{}
	}
	return yaml.Marshal(snap)
}

func (yamlCodec) Decode(data []byte) (todo.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	var snap todo.Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return snap, nil
}
