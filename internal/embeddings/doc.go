// Package embeddings provides batch text embedding via multiple providers.
//
// Two providers are available: FastEmbed runs local ONNX models (requires
// CGO) and TEI talks to a Text Embeddings Inference HTTP server. Both
// return one fixed-dimensionality vector per input text, preserving input
// order. The Lane wrapper moves the blocking inference call onto a
// dedicated worker goroutine so long-running embedding cannot stall the
// calling goroutine's peers; callers still await the result.
package embeddings
