package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// CurrentConfigVersion is the configVersion written by new projects.
const CurrentConfigVersion = "1"

// SupportedConfigVersions lists every configVersion Load accepts.
var SupportedConfigVersions = []string{CurrentConfigVersion}

// ErrUnsupportedConfigVersion reports a configVersion this build can not read.
var ErrUnsupportedConfigVersion = errors.New("unsupported configVersion")

func IsSupportedConfigVersion(v string) bool {
	return slices.Contains(SupportedConfigVersions, v)
}

func SupportedConfigVersionsCSV() string {
	return strings.Join(SupportedConfigVersions, ", ")
}

// checkConfigVersion accepts v or names the versions that would be.
func checkConfigVersion(v string) error {
	if IsSupportedConfigVersion(v) {
		return nil
	}
	return fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedConfigVersion, v, SupportedConfigVersionsCSV())
}
