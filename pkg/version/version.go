package version

// Set at build time with
// -ldflags "-X github.com/chmdznr/oss-drive-to-blob-copier/pkg/version.Version=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
