package leynos

// Version is the release of the dispatch engine.
const Version = "0.4.0"
