// Package types provides shared data structures for the file-manager engine.
//
// This package defines core types used across all engine components,
// ensuring type safety and consistent data structures.
//
// Core Types:
//   - Entry: One file or directory row in a listing
//   - Disk: One device row on the virtual root listing
//   - Listing: The items fetched for a path (files+dirs, or disks)
//   - Clipboard: The shared cut/copy record
//   - Result: Standard file-operation result
//
// State Management:
//   - MarkKind: Per-path clipboard mark (cut, copy)
//   - TabState: Persisted per-tab snapshot
//   - RegistryState: Persisted tab-registry snapshot
package types
