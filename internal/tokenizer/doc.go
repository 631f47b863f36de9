// Package tokenizer converts text into token-id sequences for model inference.
//
// The central type is Vocabulary, an immutable table loaded from GGUF-style
// key-value metadata. Depending on the tokenizer.ggml.model key it drives one
// of two encoders:
//   - SPM: SentencePiece-style greedy merging ranked by per-token unigram
//     scores, the llama.cpp lineage.
//   - BPE: GPT-2-style byte-pair encoding ranked by an ordered merge-rule
//     table, with regex pre-tokenization.
//
// Engine wraps a Vocabulary behind the Tokenizer interface, dispatching on
// the vocabulary type and handling begin/end-of-sequence decoration. A
// tiktoken-backed adapter covers OpenAI-style encodings behind the same
// interface.
//
// Example usage:
//
//	file, err := gguf.ParseFile("model.gguf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	vocab, err := tokenizer.LoadVocabulary(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ids, err := tokenizer.NewEngine(vocab).Encode("Hello, world!", true, true)
package tokenizer
