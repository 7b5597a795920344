package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/janhq/cms-media/internal/domain/credential"
	"github.com/janhq/cms-media/internal/domain/media"
)

var schemaTypes = map[string]struct {
	title string
	value any
}{
	"media":    {title: "Media", value: &media.Media{}},
	"page":     {title: "Media list page", value: &media.ListPage{}},
	"envelope": {title: "Credential envelope", value: &credential.Envelope{}},
	"issuance": {title: "Credential issuance", value: &credential.Issuance{}},
}

func newSchemaCmd(_ *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of a wire type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, _ := cmd.Flags().GetString("type")
			data, err := generateSchema(name)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(data, '\n'))
			return err
		},
	}
	cmd.Flags().String("type", "page", "Type: "+strings.Join(schemaTypeNames(), ", "))
	return cmd
}

func generateSchema(name string) ([]byte, error) {
	target, ok := schemaTypes[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema type %q (want one of %s)", name, strings.Join(schemaTypeNames(), ", "))
	}

	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            false,
		ExpandedStruct:            true,
	}
	schema := reflector.Reflect(target.value)
	schema.Title = target.title

	raw, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indent schema: %w", err)
	}
	return out.Bytes(), nil
}

func schemaTypeNames() []string {
	names := make([]string, 0, len(schemaTypes))
	for name := range schemaTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
