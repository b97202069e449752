package api

import "testing"

func TestFingerprintIsStableAndFolded(t *testing.T) {
	base := Fingerprint("Nina Simone", "Feeling Good")
	variants := [][2]string{
		{"nina simone", "feeling good"},
		{"  Nina   Simone ", "Feeling\tGood"},
		{"NINA SIMONE", "FEELING GOOD"},
	}
	for _, v := range variants {
		if got := Fingerprint(v[0], v[1]); got != base {
			t.Fatalf("Fingerprint(%q, %q) = %s, want %s", v[0], v[1], got, base)
		}
	}
	if Fingerprint("Nina Simone", "Feeling Good") != base {
		t.Fatal("fingerprint not deterministic")
	}
}

func TestFingerprintNormalizesUnicode(t *testing.T) {
	composed := Fingerprint("Beyoncé", "Halo")
	decomposed := Fingerprint("Beyoncé", "Halo")
	if composed != decomposed {
		t.Fatalf("expected NFC and NFD forms to match: %s vs %s", composed, decomposed)
	}
	if Fingerprint("Straße", "Song") != Fingerprint("STRASSE", "song") {
		t.Fatal("expected full case folding of ß")
	}
}

func TestFingerprintSeparatesFields(t *testing.T) {
	pairs := [][4]string{
		{"AB", "C", "A", "BC"},
		{"a|b", "c", "a", "b|c"},
		{"Artist", "Title!", "Artist", "Title?"},
	}
	for _, p := range pairs {
		if Fingerprint(p[0], p[1]) == Fingerprint(p[2], p[3]) {
			t.Fatalf("unexpected collision between %q/%q and %q/%q", p[0], p[1], p[2], p[3])
		}
	}
}

func TestFingerprintIsUUID(t *testing.T) {
	id := Fingerprint("a", "b")
	if len(id) != 36 || id[14] != '5' {
		t.Fatalf("expected version 5 UUID, got %q", id)
	}
}
