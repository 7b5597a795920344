package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// render writes v as indented JSON or as YAML. YAML keys follow the JSON field names.
func render(w io.Writer, format string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	switch format {
	case "yaml":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		var doc any
		if err := decoder.Decode(&doc); err != nil {
			return fmt.Errorf("decode output: %w", err)
		}

		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(normalizeNumbers(doc)); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return encoder.Close()
	default:
		var out bytes.Buffer
		if err := json.Indent(&out, data, "", "  "); err != nil {
			return fmt.Errorf("indent output: %w", err)
		}
		out.WriteByte('\n')
		_, err := w.Write(out.Bytes())
		return err
	}
}

// normalizeNumbers turns json.Number leaves into int64 or float64 so yaml prints them as numbers.
func normalizeNumbers(v any) any {
	switch value := v.(type) {
	case map[string]any:
		for key, item := range value {
			value[key] = normalizeNumbers(item)
		}
		return value
	case []any:
		for i, item := range value {
			value[i] = normalizeNumbers(item)
		}
		return value
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n
		}
		if f, err := value.Float64(); err == nil {
			return f
		}
		return value.String()
	default:
		return v
	}
}
