package version

// Set at build time with -ldflags "-X github.com/jeanpaul/studentmodel/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)
