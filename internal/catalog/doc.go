// Package catalog resolves movie titles against the catalog provider.
//
// Searcher.Lookup never fails: provider errors are logged and reported as
// an empty result so one bad title cannot sink a whole recommendation run.
// Successful lookups are cached by case-folded, NFC-normalized title.
package catalog
