package buildinfo

// set at build time via -ldflags "-X mangapdf/internal/buildinfo.Version=..."
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)
