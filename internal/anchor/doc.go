// Package anchor relocates stored text selections inside a live,
// re-rendered text layout and produces the on-screen rectangles that
// cover them.
//
// The rendered page is consumed through the narrow TextLayer interface,
// so the matching and scoring logic is unit-testable against synthetic
// layers without a real renderer. Matching tolerates re-renders that
// lowercase nothing but reflow everything: whitespace runs collapse,
// quote variants fold to one apostrophe, and two fallbacks (a
// whitespace-stripped search, then a fuzzy prefix search) recover
// matches across cross-line joins.
//
// Anchoring never fails with an error. Text that cannot be found on the
// current page yields an empty rectangle list.
package anchor
