// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"sort"
	"strings"
)

// SiteSettings holds the site_settings rows by key. Values are stored as
// text; the accessors below interpret them.
type SiteSettings map[string]string

// Bool reports whether key holds a truthy value ("1", "true", "yes", "on").
// Anything else, including a missing key, is false.
func (s SiteSettings) Bool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(s[key])) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// List returns the comma separated values under key, see SplitList.
func (s SiteSettings) List(key string) []string {
	return SplitList(s[key])
}

// SplitList parses a comma separated list into a sorted set without
// blanks. The result is never nil.
func SplitList(v string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}
