package types

// Version is the canonical project version.
// All components (CLI, server, store layout) share this version.
const Version = "0.1.0"
