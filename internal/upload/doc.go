// Package upload implements the upload-and-derive pipeline: extension
// classification, collision-free identity assignment, HEIC
// normalization, video thumbnail derivation, and the single batch-level
// save of the metadata documents. Batches have partial-failure
// semantics; one bad file never aborts its siblings.
package upload
