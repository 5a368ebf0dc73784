/*
go-gridseq decodes, stitches and scores the output of grid-based sequential
object detectors: models that predict, for every cell of a coarse grid laid
over an image, an ordered sequence of candidate bounding boxes with
confidences.

The model itself is treated as an opaque Oracle producing raw per-cell,
per-step box regressions and confidence pairs.  This package converts those
raw outputs into absolute image-coordinate rectangles, consolidates the
overlapping per-cell proposals into a final detection list and scores it
against ground truth annotations.  The matching subpackage provides the
permutation-invariant assignment loss used to train such sequence heads.

See example code and usage in the example subdirectory.
*/
package gridseq
