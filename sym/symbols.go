// Package sym defines the glyphs the consumer attaches to log lines.
// They are stable across CLI output and logs, so logs can be filtered by
// pipeline stage.
package sym

// Pipeline stages.
const (
	IX = "⨳" // ix — download and apply a delta file
	SO = "⟶" // so — route staged data to its destination graph
	AT = "✦" // at — watermark moves
	AM = "≡" // am — configuration
)

// System infrastructure symbols.
const (
	Pulse      = "꩜" // polling loop
	PulseOpen  = "✿" // graceful startup
	PulseClose = "❀" // graceful shutdown
	DB         = "⊔" // database/storage layer
)

// CommandToSymbol maps CLI commands to the glyph of the stage they work with.
var CommandToSymbol = map[string]string{
	"consume":   IX,
	"watermark": AT,
	"am":        AM,
	"run":       Pulse,
}

// CommandDescriptions provides one-line explanations used in CLI help.
var CommandDescriptions = map[string]string{
	"consume":   "Run one ingestion cycle and exit",
	"watermark": "Show or move the ingestion watermark",
	"am":        "Show and validate configuration",
	"run":       "Poll the sync endpoint until interrupted",
}
