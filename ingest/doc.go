// Package ingest parses simulation output into a curve.Set.
//
// Every data line describes one trajectory:
//
//	energy extinction_index v0 v1 ... v_{m-1}
//
// energy selects the bin, extinction_index is the step at which the epidemic died
// out (math.MaxUint64 for a trajectory that never finished) and the values are the
// infection counts per step. Blank lines and lines starting with '#' are skipped.
//
// In sparse mode each curve is truncated after its extinction step and the full
// sample count of the first line becomes the reference length of the set. In naive
// mode whole lines are kept.
//
// Files may be plain text or compressed; the decoder is chosen from the file
// extension (.gz, .xz, .zst, .s2, .lz4).
package ingest
