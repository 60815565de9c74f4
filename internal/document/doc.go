// Package document is the in-memory editing session the toolbar runs against.
//
// A Session holds a flat list of blocks, the current selection and the typing
// state of a collapsed cursor. Queries are read-only and only touch the blocks
// covered by the selection. All mutations go through Transact: the callback
// receives a Tx working on a private copy, which is committed atomically when
// the callback succeeds and discarded otherwise. Listeners are notified once,
// after commit.
//
// The block model mirrors what a TipTap/ProseMirror document exposes to a
// toolbar: a block type (paragraph, heading with level, blockquote, code
// block, bullet or ordered list item) and inline runs carrying marks.
// Container nodes (blockquote, lists) are flattened into the block type and
// regrouped on export.
package document
