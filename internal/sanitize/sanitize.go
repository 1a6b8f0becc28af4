// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// VideoLoop - 视频循环转码工具

// Package sanitize turns arbitrary file base names into safe output names.
package sanitize

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fallback is returned when nothing usable survives sanitizing
const Fallback = "unnamed"

var transliterate = strings.NewReplacer(
	" ", "_",
	"æ", "ae",
	"ø", "o",
	"å", "aa",
	"Æ", "AE",
	"Ø", "O",
	"Å", "AA",
)

// Name maps name to a deterministic base name made of [A-Za-z0-9_-].
// The caller strips or re-adds any extension.
func Name(name string) string {
	// Finder hands out decomposed names; compose so å is one rune.
	s := transliterate.Replace(norm.NFC.String(name))

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; isAllowed(c) {
			b.WriteByte(c)
		}
	}

	out := strings.Trim(b.String(), "_-")
	if out == "" {
		return Fallback
	}
	return out
}

func isAllowed(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_' || c == '-':
		return true
	}
	return false
}
