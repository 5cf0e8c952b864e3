package narrative

import "fmt"

// ActionSet maps action symbols to input slots.
type ActionSet struct {
	symbols []string
	slots   map[string]int
}

// NewActionSet builds the symbol table. Symbols must be ActionCount distinct,
// non-empty values; slot i is symbols[i].
func NewActionSet(symbols []string) (*ActionSet, error) {
	if len(symbols) != ActionCount {
		return nil, fmt.Errorf("expected %d action symbols, got %d", ActionCount, len(symbols))
	}
	as := &ActionSet{
		symbols: append([]string(nil), symbols...),
		slots:   make(map[string]int, len(symbols)),
	}
	for i, s := range symbols {
		if s == "" {
			return nil, fmt.Errorf("action symbol %d is empty", i)
		}
		if _, dup := as.slots[s]; dup {
			return nil, fmt.Errorf("action symbol %q declared twice", s)
		}
		as.slots[s] = i
	}
	return as, nil
}

// Slot returns the slot for symbol.
func (as *ActionSet) Slot(symbol string) (int, bool) {
	slot, ok := as.slots[symbol]
	return slot, ok
}

// Symbols returns the declared symbols in slot order.
func (as *ActionSet) Symbols() []string {
	return append([]string(nil), as.symbols...)
}
