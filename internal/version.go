package internal

// Version is the build version of the relay. It is overwritten at build time via ldflags.
var Version = "unknown"
