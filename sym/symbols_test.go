package sym

import (
	"testing"
	"unicode/utf8"
)

func TestCommandSymbolsAreDistinct(t *testing.T) {
	seen := make(map[string]string)
	for cmd, symbol := range CommandToSymbol {
		if other, ok := seen[symbol]; ok {
			t.Errorf("commands %q and %q share symbol %q", cmd, other, symbol)
		}
		seen[symbol] = cmd
	}
}

func TestCommandDescriptionsCoversAllCommands(t *testing.T) {
	for cmd := range CommandToSymbol {
		if _, ok := CommandDescriptions[cmd]; !ok {
			t.Errorf("CommandDescriptions missing entry for command %q", cmd)
		}
	}
}

func TestGlyphsAreSingleRune(t *testing.T) {
	for _, g := range []string{IX, SO, AT, AM, Pulse, PulseOpen, PulseClose, DB} {
		if utf8.RuneCountInString(g) != 1 {
			t.Errorf("glyph %q should be a single rune", g)
		}
	}
}
