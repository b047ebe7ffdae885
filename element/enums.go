package element

// Kind of element a reference points to.
// ENUM(document, asset, object)
type Type int
