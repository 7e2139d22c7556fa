package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/precliniverse/wizard/internal/mapping"
	"github.com/precliniverse/wizard/internal/schema"
	"github.com/precliniverse/wizard/internal/upstream"
	searchuc "github.com/precliniverse/wizard/internal/usecase/search"
)

var (
	mapAPI    string
	mapFile   string
	mapSchema string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Normalize a saved upstream response offline",
	Long: `Reads an upstream response (or a bare list of hits) from --file or stdin,
extracts the hits at the API's result_path and prints the normalized records.`,
	Args: cobra.NoArgs,
	RunE: runMap,
}

func init() {
	mapCmd.Flags().StringVar(&mapAPI, "api", "", "API key from the schema document")
	mapCmd.Flags().StringVarP(&mapFile, "file", "f", "", "response file (default stdin)")
	mapCmd.Flags().StringVar(&mapSchema, "schema", "", "schema document (default from config)")
	_ = mapCmd.MarkFlagRequired("api")
	rootCmd.AddCommand(mapCmd)
}

func runMap(cmd *cobra.Command, _ []string) error {
	schemaPath := mapSchema
	if schemaPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		schemaPath = cfg.Schema.Path
	}

	logger := zap.NewNop()
	store := schema.NewStore(schemaPath, logger)
	if err := store.Load(); err != nil {
		return err //nolint:wrapcheck // already names the file
	}

	def, ok := store.Current().API(mapAPI)
	if !ok {
		return fmt.Errorf("API '%s' not found in schema", mapAPI)
	}

	raw, err := readInput(cmd.InOrStdin())
	if err != nil {
		return err
	}

	data, err := decodeUseNumber(raw)
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	path := def.ResultPath
	if _, isList := data.([]any); isList {
		path = ""
	}
	hits := upstream.ExtractHits(data, path, def.Limit())

	svc := searchuc.New(store, nil, mapping.New(mapping.DefaultRegistry(), logger))
	res, err := svc.Normalize(cmd.Context(), mapAPI, hits)
	if err != nil {
		return err //nolint:wrapcheck // lookup error is already descriptive
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func readInput(stdin io.Reader) ([]byte, error) {
	if mapFile == "" || mapFile == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(mapFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", mapFile, err)
	}
	return data, nil
}

func decodeUseNumber(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err //nolint:wrapcheck // wrapped by caller
	}
	return v, nil
}
