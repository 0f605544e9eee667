// Package tab implements one independent navigation context of the
// file manager.
//
// A Tab owns its history stack, selection, filter term, and the listing
// snapshot last fetched for the path under the history cursor. It talks
// to two collaborators: a Fetcher that retrieves listings and a Renderer
// that receives frames after every mutating operation.
//
// Loading Rules:
//   - LoadPath is a forward navigation: it pushes a history entry
//   - Refresh, GoBack, GoForward replay history without pushing
//   - A tab never runs two loads at once; re-entrant loads are dropped
//   - A fetch failure leaves the previous listing in place
//   - Responses that arrive after a newer navigation are discarded
package tab
