package constant

import "os"

// <NodeDir>/                    (e.g., /home/trader/.tradeyard)
// └── config/
//	└── tradeyard_config.json
// └── databases/
//	└── journal.db
// └── localnet/
//	└── (badger files)

const (
	NodeDir = ".tradeyard"

	ConfigSubdir   = "config"
	ConfigFileName = "tradeyard_config.json"

	DatabasesSubdir = "databases"
	JournalDBName   = "journal.db"

	LocalnetSubdir = "localnet"

	// HomeEnvVar overrides DefaultNodeHome when set.
	HomeEnvVar = "TRADEYARD_HOME"
)

// Seeds used to derive the program-owned addresses of a listed item.
const (
	ItemSeed         = "item"
	ItemMetadataSeed = "item_metadata"
)

var DefaultNodeHome = os.ExpandEnv("$HOME/") + NodeDir

// NodeHome returns the node home directory, honouring HomeEnvVar.
func NodeHome() string {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home
	}
	return DefaultNodeHome
}
