package version

const Framework = "v0.3.0"
