package buildinfo

// Version is overridden at link time with -ldflags "-X go2tv.app/tizenbridge/internal/buildinfo.Version=...".
var Version = "dev"

const Name = "tizenbridge"
