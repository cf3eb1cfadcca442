// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Menu names ---
		{"two words", "Main Menu", "main-menu"},
		{"single word", "Footer", "footer"},
		{"already a slug", "primary-menu", "primary-menu"},
		{"underscore kept", "theme_location", "theme_location"},
		{"punctuation", "Shop, Blog & More!", "shop-blog-more"},
		{"slashes separate", "Header/Mobile", "header-mobile"},
		{"dots separate", "v2.menu", "v2-menu"},

		// --- Accents fold to base letters ---
		{"french", "Café Crème", "cafe-creme"},
		{"german", "Über die Brücke", "uber-die-brucke"},
		{"romanian", "Ștefan cel Mare", "stefan-cel-mare"},
		{"non latin dropped", "Menu 菜单", "menu"},

		// --- Whitespace and hyphens ---
		{"tabs and newlines", "top\tbar\nlinks", "top-bar-links"},
		{"surrounding space", "  side bar  ", "side-bar"},
		{"hyphen runs", "--a -- b--", "a-b"},

		// --- Hostile input ---
		{"parent traversal", "../../etc/passwd", "etc-passwd"},
		{"only traversal", "../../", ""},
		{"only symbols", "!@#$%^&*()", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateIdempotent(t *testing.T) {
	for _, s := range []string{"main-menu", "menu_2", "a", "123"} {
		if got := Generate(s); got != s {
			t.Errorf("Generate(%q) = %q, want unchanged", s, got)
		}
	}
}

func TestGenerateMaxLength(t *testing.T) {
	got := Generate(strings.Repeat("ab ", 200))
	if len(got) > MaxLength {
		t.Fatalf("length %d exceeds %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") {
		t.Errorf("truncated slug ends with a hyphen: %q", got)
	}
}
