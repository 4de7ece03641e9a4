package config

const SourceFileExt = ".relic"

// SourceFileExtensions are all recognized source file extensions
var SourceFileExtensions = []string{".relic", ".rlc"}

// Default interpreter tuning, overridable from the config file.
const (
	DefaultPrompt           = ">> "
	DefaultCollectThreshold = 4096
	DefaultSymbolsHint      = 1024
)

// EnvConfigPath names the environment variable pointing at a config file,
// checked before the home-directory default.
const EnvConfigPath = "RELIC_CONFIG"

// DefaultConfigName is the per-user config file looked up in $HOME.
const DefaultConfigName = ".relic.yml"
