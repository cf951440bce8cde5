package sync

import (
	"strings"
	"testing"

	"github.com/metamechanic/notesync/internal/model"
	"github.com/metamechanic/notesync/internal/schema"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	return schema.Default()
}

func personNote(platform model.Platform, sections ...model.Section) *model.Note {
	return &model.Note{
		Identity: "alan-turing",
		Type:     "person",
		Platform: platform,
		Meta:     map[string]any{"title": "Alan Turing", "type": "person"},
		Sections: sections,
	}
}

func section(name string, format model.Format, content string) model.Section {
	return model.Section{Name: name, Heading: name, Format: format, Content: content, Schematized: true}
}

func planOne(t *testing.T, p *Planner, source, target *model.Note) []Directive {
	t.Helper()
	sourceNotes := map[string]*model.Note{}
	targetNotes := map[string]*model.Note{}
	if source != nil {
		sourceNotes[source.Identity] = source
	}
	if target != nil {
		targetNotes[target.Identity] = target
	}
	return p.Plan(model.Logseq, model.Obsidian, sourceNotes, targetNotes)
}

func TestPlan_TargetMissingCreates(t *testing.T) {
	p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
	src := personNote(model.Logseq, section("bio", model.FormatBullets, "- Born 1912"))

	directives := planOne(t, p, src, nil)
	if len(directives) != 1 {
		t.Fatalf("directives = %v", directives)
	}
	d := directives[0]
	if d.Action != ActionCreate {
		t.Errorf("Action = %v", d.Action)
	}
	// person.bio syncs as paragraphs on Obsidian.
	if d.TargetFormat != model.FormatParagraphs {
		t.Errorf("TargetFormat = %v", d.TargetFormat)
	}
	if d.Payload != "Born 1912" {
		t.Errorf("Payload = %q", d.Payload)
	}
}

func TestPlan_SectionMissingOnTargetUpdates(t *testing.T) {
	p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
	src := personNote(model.Logseq, section("bio", model.FormatBullets, "- Born 1912"))
	tgt := personNote(model.Obsidian, section("works", model.FormatParagraphs, "On Computable Numbers."))

	directives := planOne(t, p, src, tgt)

	var bio *Directive
	for i := range directives {
		if directives[i].Section == "bio" {
			bio = &directives[i]
		}
	}
	if bio == nil || bio.Action != ActionUpdate {
		t.Fatalf("bio directive = %+v", bio)
	}
}

func TestPlan_SourceChangedCopies(t *testing.T) {
	led := testLedger(t)
	src := personNote(model.Logseq, section("bio", model.FormatBullets, "- Edited bio"))
	tgt := personNote(model.Obsidian, section("bio", model.FormatParagraphs, "Old bio"))
	led.Record("alan-turing", "bio", model.Logseq, model.ContentHash("- Old bio"))
	led.Record("alan-turing", "bio", model.Obsidian, tgt.Sections[0].Hash())

	p := &Planner{Schema: testSchema(t), Ledger: led}
	directives := planOne(t, p, src, tgt)
	if len(directives) != 1 || directives[0].Action != ActionUpdate {
		t.Fatalf("directives = %+v", directives)
	}
	if directives[0].Payload != "Edited bio" {
		t.Errorf("Payload = %q", directives[0].Payload)
	}
}

func TestPlan_TargetChanged(t *testing.T) {
	setup := func(t *testing.T) (*model.Note, *model.Note, *Planner) {
		led := testLedger(t)
		src := personNote(model.Logseq, section("bio", model.FormatBullets, "- Stable bio"))
		tgt := personNote(model.Obsidian, section("bio", model.FormatParagraphs, "Edited on obsidian"))
		led.Record("alan-turing", "bio", model.Logseq, src.Sections[0].Hash())
		led.Record("alan-turing", "bio", model.Obsidian, model.ContentHash("Stable bio"))
		return src, tgt, &Planner{Schema: testSchema(t), Ledger: led}
	}

	t.Run("one-way skips", func(t *testing.T) {
		src, tgt, p := setup(t)
		directives := planOne(t, p, src, tgt)
		if len(directives) != 1 || directives[0].Action != ActionSkip {
			t.Fatalf("directives = %+v", directives)
		}
	})

	t.Run("bidirectional copies back", func(t *testing.T) {
		src, tgt, p := setup(t)
		p.Bidirectional = true
		directives := planOne(t, p, src, tgt)
		if len(directives) != 1 {
			t.Fatalf("directives = %+v", directives)
		}
		d := directives[0]
		if d.Action != ActionUpdate {
			t.Errorf("Action = %v", d.Action)
		}
		if d.Source != model.Obsidian || d.Target != model.Logseq {
			t.Errorf("direction = %s -> %s", d.Source, d.Target)
		}
		if d.Payload != "- Edited on obsidian" {
			t.Errorf("Payload = %q", d.Payload)
		}
	})
}

func TestPlan_BothChangedConflicts(t *testing.T) {
	led := testLedger(t)
	src := personNote(model.Logseq, section("bio", model.FormatBullets, "- Logseq edit"))
	tgt := personNote(model.Obsidian, section("bio", model.FormatParagraphs, "Obsidian edit"))
	led.Record("alan-turing", "bio", model.Logseq, model.ContentHash("- Original"))
	led.Record("alan-turing", "bio", model.Obsidian, model.ContentHash("Original"))

	p := &Planner{Schema: testSchema(t), Ledger: led}
	directives := planOne(t, p, src, tgt)
	if len(directives) != 1 || directives[0].Action != ActionConflict {
		t.Fatalf("directives = %+v", directives)
	}
}

func TestPlan_FirstRun(t *testing.T) {
	t.Run("differing content conflicts", func(t *testing.T) {
		p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
		src := personNote(model.Logseq, section("bio", model.FormatBullets, "- One thing"))
		tgt := personNote(model.Obsidian, section("bio", model.FormatParagraphs, "Another thing"))

		directives := planOne(t, p, src, tgt)
		if len(directives) != 1 || directives[0].Action != ActionConflict {
			t.Fatalf("directives = %+v", directives)
		}
	})

	t.Run("agreeing content confirms", func(t *testing.T) {
		p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
		src := personNote(model.Logseq, section("bio", model.FormatBullets, "- Born 1912"))
		tgt := personNote(model.Obsidian, section("bio", model.FormatParagraphs, "Born 1912"))

		directives := planOne(t, p, src, tgt)
		if len(directives) != 1 || directives[0].Action != ActionConfirm {
			t.Fatalf("directives = %+v", directives)
		}
	})
}

func TestPlan_SchemaPolicies(t *testing.T) {
	t.Run("sync disabled skips", func(t *testing.T) {
		// person.analysis has sync: false.
		p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
		src := personNote(model.Logseq, section("analysis", model.FormatParagraphs, "private"))

		directives := planOne(t, p, src, nil)
		if len(directives) != 1 || directives[0].Action != ActionSkip {
			t.Fatalf("directives = %+v", directives)
		}
	})

	t.Run("exclusive sections never move", func(t *testing.T) {
		// book.reading_notes is obsidian_only.
		src := &model.Note{
			Identity: "the-annotated-turing",
			Type:     "book",
			Platform: model.Obsidian,
			Meta:     map[string]any{"title": "The Annotated Turing", "type": "book"},
			Sections: []model.Section{
				section("reading_notes", model.FormatBullets, "- margin note"),
			},
		}
		directives := (&Planner{Schema: testSchema(t), Ledger: testLedger(t)}).Plan(
			model.Obsidian, model.Logseq,
			map[string]*model.Note{src.Identity: src},
			map[string]*model.Note{},
		)
		if len(directives) != 1 || directives[0].Action != ActionSkip {
			t.Fatalf("directives = %+v", directives)
		}
	})

	t.Run("copies into an exclusive platform are blocked too", func(t *testing.T) {
		// A syncable but quarto_only section: syncing toward quarto from
		// another platform must not write it either.
		s := &schema.Schema{
			NoteTypes: map[string]schema.NoteType{
				"article": {Sections: map[string]schema.SectionPolicy{
					"snippets": {Sync: true, QuartoOnly: true, QuartoFormat: model.FormatCode},
				}},
			},
		}
		src := &model.Note{
			Identity: "enigma-post",
			Type:     "article",
			Platform: model.Logseq,
			Meta:     map[string]any{"title": "Enigma Post", "type": "article"},
			Sections: []model.Section{
				section("snippets", model.FormatBullets, "- snippet"),
			},
		}
		directives := (&Planner{Schema: s, Ledger: testLedger(t)}).Plan(
			model.Logseq, model.Quarto,
			map[string]*model.Note{src.Identity: src},
			map[string]*model.Note{},
		)
		if len(directives) != 1 || directives[0].Action != ActionSkip {
			t.Fatalf("directives = %+v", directives)
		}
		if !strings.Contains(directives[0].Reason, "exclusive to quarto") {
			t.Errorf("Reason = %q", directives[0].Reason)
		}
	})

	t.Run("unschematized sections skip", func(t *testing.T) {
		p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
		sec := section("shopping_list", model.FormatBullets, "- milk")
		sec.Schematized = false
		src := personNote(model.Logseq, sec)

		directives := planOne(t, p, src, nil)
		if len(directives) != 1 || directives[0].Action != ActionSkip {
			t.Fatalf("directives = %+v", directives)
		}
	})
}

func TestPlan_LogseqSyntaxRewrites(t *testing.T) {
	t.Run("block refs and embeds rewrite for obsidian", func(t *testing.T) {
		p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
		src := personNote(model.Logseq, section("bio", model.FormatBullets,
			"- See ((67a1b2c3-d4e5))\n- {{embed [[Bletchley Park]]}}"))

		directives := planOne(t, p, src, nil)
		if len(directives) != 1 {
			t.Fatalf("directives = %+v", directives)
		}
		want := "See [[^67a1b2c3-d4e5]]\n\n![[Bletchley Park]]"
		if directives[0].Payload != want {
			t.Errorf("Payload = %q, want %q", directives[0].Payload, want)
		}
	})

	t.Run("reverse copies keep obsidian syntax untouched", func(t *testing.T) {
		led := testLedger(t)
		src := personNote(model.Logseq, section("bio", model.FormatBullets, "- Stable"))
		tgt := personNote(model.Obsidian, section("bio", model.FormatParagraphs, "Links to [[^abc-123]]"))
		led.Record("alan-turing", "bio", model.Logseq, src.Sections[0].Hash())
		led.Record("alan-turing", "bio", model.Obsidian, model.ContentHash("Stable"))

		p := &Planner{Schema: testSchema(t), Ledger: led, Bidirectional: true}
		directives := planOne(t, p, src, tgt)
		if len(directives) != 1 {
			t.Fatalf("directives = %+v", directives)
		}
		if directives[0].Payload != "- Links to [[^abc-123]]" {
			t.Errorf("Payload = %q", directives[0].Payload)
		}
	})
}

func TestPlan_CodeSectionsNeverConvert(t *testing.T) {
	// article.snippets is quarto_only code, so exclusivity already blocks
	// it. Exercise the conversion guard with a section whose detected
	// format is code on a plain sync path instead.
	p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
	sec := section("bio", model.FormatCode, "```py\nx\n```")
	src := personNote(model.Logseq, sec)

	directives := planOne(t, p, src, nil)
	if len(directives) != 1 || directives[0].Action != ActionSkip {
		t.Fatalf("directives = %+v", directives)
	}
}

func TestPlan_DeterministicOrder(t *testing.T) {
	p := &Planner{Schema: testSchema(t), Ledger: testLedger(t)}
	a := personNote(model.Logseq,
		section("works", model.FormatBullets, "- b"),
		section("bio", model.FormatBullets, "- a"),
	)
	b := &model.Note{
		Identity: "ada-lovelace",
		Type:     "person",
		Platform: model.Logseq,
		Meta:     map[string]any{"title": "Ada Lovelace", "type": "person"},
		Sections: []model.Section{section("bio", model.FormatBullets, "- c")},
	}

	directives := p.Plan(model.Logseq, model.Obsidian,
		map[string]*model.Note{a.Identity: a, b.Identity: b},
		map[string]*model.Note{})

	want := []string{"ada-lovelace/bio", "alan-turing/bio", "alan-turing/works"}
	if len(directives) != len(want) {
		t.Fatalf("directives = %+v", directives)
	}
	for i, d := range directives {
		if got := d.Identity + "/" + d.Section; got != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, got, want[i])
		}
	}
}
