package resource

// Groups maps language codes to their bundles, remembering the order in
// which each language was first seen.
type Groups struct {
	order   []string
	bundles map[string]*Bundle
}

// Group reshapes records into per-language bundles.
//
// Each record's values are visited in key order and every (record, language)
// pair becomes exactly one entry. Repeated IDs for the same language are kept
// as separate entries; nothing is merged or deduplicated.
func Group(records []Record) *Groups {
	g := &Groups{bundles: make(map[string]*Bundle)}
	for _, rec := range records {
		if rec.Values == nil {
			continue
		}
		for _, lang := range rec.Values.Keys() {
			value, _ := rec.Values.Get(lang)
			g.add(lang, Entry{ID: rec.ID, Value: value})
		}
	}
	return g
}

func (g *Groups) add(lang string, e Entry) {
	b, ok := g.bundles[lang]
	if !ok {
		b = &Bundle{Language: lang}
		g.bundles[lang] = b
		g.order = append(g.order, lang)
	}
	b.Resources = append(b.Resources, e)
}

// Languages returns language codes in first-seen order.
func (g *Groups) Languages() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Bundle returns the bundle for lang.
func (g *Groups) Bundle(lang string) (Bundle, bool) {
	b, ok := g.bundles[lang]
	if !ok {
		return Bundle{}, false
	}
	return *b, true
}

// Bundles returns all bundles in first-seen language order.
func (g *Groups) Bundles() []Bundle {
	out := make([]Bundle, 0, len(g.order))
	for _, lang := range g.order {
		out = append(out, *g.bundles[lang])
	}
	return out
}

// Len returns the number of distinct languages.
func (g *Groups) Len() int {
	return len(g.order)
}
