package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ggtok/ggtok/internal/config"
	"github.com/ggtok/ggtok/tokenizer"
	"github.com/spf13/cobra"
)

func newTokenizeCmd() *cobra.Command {
	var (
		decode bool
		addBOS bool
		addEOS bool
	)

	cmd := &cobra.Command{
		Use:   "tokenize [text...]",
		Short: "Encode text to token ids (or decode ids back to text)",
		Long: `Encode text into token ids using the configured model.

Text is taken from the arguments, or from stdin when no arguments are
given. With --decode the input is parsed as whitespace-separated token
ids and decoded back to text instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			if cfg.Model.Path == "" {
				return fmt.Errorf("no model configured: pass --model-path or set GGTOK_MODEL_PATH")
			}
			if cmd.Flags().Changed("bos") {
				cfg.Model.AddBOS = addBOS
			}
			if cmd.Flags().Changed("eos") {
				cfg.Model.AddEOS = addEOS
			}

			input, err := gatherInput(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			tok, err := tokenizer.AutoLoad(cfg.Model.Path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if decode {
				return runDecode(out, tok, input, cfg.Output.JSON)
			}
			return runEncode(out, tok, input, cfg)
		},
	}

	cmd.Flags().BoolVar(&decode, "decode", false, "Treat input as token ids and decode to text")
	cmd.Flags().BoolVar(&addBOS, "bos", false, "Prepend the beginning-of-sequence token (overrides config)")
	cmd.Flags().BoolVar(&addEOS, "eos", false, "Append the end-of-sequence token (overrides config)")

	return cmd
}

// gatherInput joins the arguments, falling back to stdin when none are given.
func gatherInput(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func runEncode(out io.Writer, tok tokenizer.Tokenizer, input string, cfg config.Config) error {
	ids, err := tok.Encode(input, cfg.Model.AddBOS, cfg.Model.AddEOS)
	if err != nil {
		return err
	}

	if cfg.Output.JSON {
		return json.NewEncoder(out).Encode(struct {
			Tokens []int32 `json:"tokens"`
			Count  int     `json:"count"`
		}{Tokens: ids, Count: len(ids)})
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	_, err = fmt.Fprintln(out, strings.Join(parts, " "))
	return err
}

func runDecode(out io.Writer, tok tokenizer.Tokenizer, input string, asJSON bool) error {
	fields := strings.Fields(input)
	ids := make([]int32, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid token id %q: %w", f, err)
		}
		ids = append(ids, int32(n))
	}

	text, err := tok.Decode(ids)
	if err != nil {
		return err
	}

	if asJSON {
		return json.NewEncoder(out).Encode(struct {
			Text string `json:"text"`
		}{Text: text})
	}
	_, err = fmt.Fprintln(out, text)
	return err
}
