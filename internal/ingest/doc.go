// Package ingest implements the document-to-vector ingestion pipeline.
//
// The pipeline discovers text documents under a directory, streams their
// non-empty lines into bounded chunks, embeds each chunk as a batch,
// attaches ids and file metadata to every line's vector, and flushes the
// resulting points to the vector store in bounded batches.
//
// One ingestion run proceeds sequentially file-by-file and chunk-by-chunk.
// The in-flight batch buffer is owned exclusively by that run. The
// point-id counter lives on the service and is seeded once from the
// index's existing point count, so successive counter-id runs continue
// the sequence and write disjoint id ranges instead of overwriting
// earlier points.
package ingest
