package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Comcast/chatflow/flow"

	"gopkg.in/yaml.v2"
)

// DecodeGraphFile reads a flow graph from a JSON or YAML file.  JSON
// is detected by a leading '{'; anything else goes through the YAML
// parser.
func DecodeGraphFile(filename string) (*flow.Graph, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return DecodeGraph(bs)
}

// DecodeGraph parses a flow graph from JSON or YAML bytes.
func DecodeGraph(bs []byte) (*flow.Graph, error) {
	var g flow.Graph

	trimmed := bytes.TrimLeft(bs, " \t\r\n")
	if 0 < len(trimmed) && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &g); err != nil {
			return nil, err
		}
		return &g, nil
	}

	// The YAML route goes through JSON so the graph's own
	// unmarshaling (node kind dispatch) still applies.
	var x interface{}
	if err := yaml.Unmarshal(bs, &x); err != nil {
		return nil, err
	}
	x = stringKeys(x)
	js, err := json.Marshal(x)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(js, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// stringKeys rewrites yaml.v2's map[interface{}]interface{} maps so
// the value can be marshaled as JSON.
func stringKeys(x interface{}) interface{} {
	switch vv := x.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(vv))
		for k, v := range vv {
			m[fmt.Sprintf("%v", k)] = stringKeys(v)
		}
		return m
	case []interface{}:
		for i, v := range vv {
			vv[i] = stringKeys(v)
		}
		return vv
	}
	return x
}
