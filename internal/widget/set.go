package widget

// Set is the fixed, ordered collection of widgets the surface controls.
// It is built once at startup and never mutated afterwards, so lookups
// need no locking.
type Set struct {
	widgets   []*Widget
	byAddress map[string][]*Widget
	byPin     map[int][]*Widget
	pins      []int
}

func NewSet(configs []Config) *Set {
	s := &Set{
		byAddress: make(map[string][]*Widget),
		byPin:     make(map[int][]*Widget),
	}
	for _, cfg := range configs {
		w := New(cfg)
		s.widgets = append(s.widgets, w)
		s.byAddress[cfg.Address] = append(s.byAddress[cfg.Address], w)
		if _, seen := s.byPin[cfg.ButtonPin]; !seen {
			s.pins = append(s.pins, cfg.ButtonPin)
		}
		s.byPin[cfg.ButtonPin] = append(s.byPin[cfg.ButtonPin], w)
	}
	return s
}

// All returns the widgets in configuration order.
func (s *Set) All() []*Widget {
	return s.widgets
}

// MatchAddress returns every widget whose address exactly matches.
func (s *Set) MatchAddress(address string) []*Widget {
	return s.byAddress[address]
}

// OnPin returns the widgets sharing one button pin.
func (s *Set) OnPin(pin int) []*Widget {
	return s.byPin[pin]
}

// Pins returns the distinct button pins in configuration order.
func (s *Set) Pins() []int {
	return s.pins
}

// Toggles returns the toggle-kind widgets, the ones whose console state
// is re-polled after entering two-way mode.
func (s *Set) Toggles() []*Widget {
	var out []*Widget
	for _, w := range s.widgets {
		if w.Kind == KindToggle {
			out = append(out, w)
		}
	}
	return out
}
