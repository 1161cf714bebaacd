// Package ingest implements the bulk-ingest collaborator contract: batches
// of JSON documents shipped to the search engine as newline-delimited
// action/document pairs, with any reported per-document error treated as a
// whole-batch failure for retry purposes.
package ingest
