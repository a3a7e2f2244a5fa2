// Package render drives a complete render: it reads the puzzle document,
// resolves assets, builds and sequences the pages of every puzzle, joins them
// with the optional intro and outtro, lays background music underneath and
// hands the finished timeline to the encoder.
//
// Stages run strictly in order and the first failure aborts the run:
//
//	read_config -> resolve_assets -> {generate_order -> build_pages -> sequence_puzzle} x N
//	  -> concatenate -> mix_audio? -> encode -> archive? -> publish? -> done
//
// Each puzzle gets its own staging scope for the splitter output. The scope is
// removed as soon as the puzzle's pages are built, on success and on error.
package render
