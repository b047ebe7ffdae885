package config

// What importer does with references to elements it cannot find.
// ENUM(keep, strip, fail)
type DanglingPolicy int
