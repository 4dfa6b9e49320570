// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks user-supplied identifiers before they reach the
// solution archive, where they become key prefixes and stored labels.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// fingerprintPattern matches a full or partial lower-case hex sha256.
var fingerprintPattern = regexp.MustCompile(`^[0-9a-f]{1,64}$`)

// mineNamePattern allows file-name-like labels: letters, digits, dot,
// dash, underscore. Max 64 characters.
var mineNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]{0,63}$`)

// MinPrefix is the shortest fingerprint prefix accepted for lookups.
const MinPrefix = 4

// ValidateFingerprintPrefix validates a fingerprint or fingerprint prefix
// used to look up an archived solution.
//
// Valid prefixes are MinPrefix to 64 lower-case hex characters. Shorter
// prefixes match too much of the archive to be useful.
//
// Example:
//
//	if err := validation.ValidateFingerprintPrefix(arg); err != nil {
//	    return err
//	}
//	rec, err := arc.Find(ctx, arg)
func ValidateFingerprintPrefix(prefix string) error {
	if len(prefix) < MinPrefix {
		return fmt.Errorf("fingerprint prefix %q is shorter than %d characters", prefix, MinPrefix)
	}
	if !fingerprintPattern.MatchString(prefix) {
		return fmt.Errorf("invalid fingerprint prefix %q (must be lower-case hex, at most 64 characters)", prefix)
	}
	return nil
}

// ValidateMineName validates a mine label. The empty name is allowed and
// means "unnamed".
func ValidateMineName(name string) error {
	if name == "" {
		return nil
	}
	if !mineNamePattern.MatchString(name) {
		return fmt.Errorf("invalid mine name %q (letters, digits, '.', '-', '_'; at most 64 characters)", name)
	}
	return nil
}

// SanitizeFingerprintPrefix trims and lower-cases a prefix, then validates it.
//
//	prefix, err := validation.SanitizeFingerprintPrefix("  3FA9C0 ")
//	// prefix == "3fa9c0"
func SanitizeFingerprintPrefix(prefix string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(prefix))
	if err := ValidateFingerprintPrefix(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
