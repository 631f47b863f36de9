package main

import (
	"encoding/json"
	"fmt"

	"github.com/ggtok/ggtok/internal/gguf"
	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <model.gguf>",
		Short: "Print the tokenizer-relevant contents of a GGUF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			file, err := gguf.ParseFile(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Output.JSON {
				return json.NewEncoder(out).Encode(inspectReport(file))
			}
			_, err = fmt.Fprint(out, file.Summary())
			return err
		},
	}

	return cmd
}

type report struct {
	Version      uint32 `json:"version"`
	MetadataKeys uint64 `json:"metadata_keys"`
	Tensors      uint64 `json:"tensors"`
	Architecture string `json:"architecture,omitempty"`
	Model        string `json:"tokenizer_model,omitempty"`
	VocabSize    int    `json:"vocab_size,omitempty"`
	MergeRules   int    `json:"merge_rules,omitempty"`
}

func inspectReport(f *gguf.File) report {
	r := report{
		Version:      f.Header.Version,
		MetadataKeys: f.Header.MetadataKVCount,
		Tensors:      f.Header.TensorCount,
	}
	r.Architecture, _ = f.String("general.architecture")
	r.Model, _ = f.String("tokenizer.ggml.model")
	if tokens, ok := f.StringArray("tokenizer.ggml.tokens"); ok {
		r.VocabSize = len(tokens)
	}
	if merges, ok := f.StringArray("tokenizer.ggml.merges"); ok {
		r.MergeRules = len(merges)
	}
	return r
}
