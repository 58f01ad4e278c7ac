package version

// Version is the release version reported by the CLI and the API.
const Version = "v0.3.1"
