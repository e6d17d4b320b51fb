// Package session ties the schema store, the data fetcher, the option
// resolver, the form compiler and the diff engine together for one editing
// surface.
//
// Every Load is bound to a Context (branch, point in time, kind, object id).
// Loads are numbered; when a newer Load starts before an older one finishes,
// the older result is discarded with a StaleContextError and never replaces
// the current form or the baseline Submit diffs against.
package session
