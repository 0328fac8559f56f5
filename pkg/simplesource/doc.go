// Package simplesource provides a reusable library for curating a list of
// source records (staged files, remote links, text notes) with pluggable
// metadata and blob storage backends, plus outbound delivery of a selected
// batch to a configured webhook.
//
// It exposes a single Service interface that orchestrates staging, metadata
// mutation with blob-lifetime cleanup, filtering/selection helpers and batch
// delivery. Implementations of metadata repositories (memory, filesystem,
// Postgres) and blob stores (memory, filesystem, S3) are provided under
// subpackages, as are the preview handle manager (preview) and the webhook
// batcher (webhook).
//
// Ownership model
//
// A file or text record exclusively owns one blob entry keyed
// "<namespace>::<id>". Deleting the record deletes the blob; nothing else may
// reference it. Preview handles are derived, process-local state owned by a
// preview.Manager and released when the record disappears or the manager is
// closed.
package simplesource
