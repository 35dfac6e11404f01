package utils

import (
	"fmt"
	"strings"
)

const (
	// ExportNameSeparator separates the IQN prefix from the volume id in an export name
	ExportNameSeparator = ":"

	// maxRecordNameLen keeps record names within common filename limits
	maxRecordNameLen = 255
)

// Characters that must never appear in a record name. Record names become
// filenames under volumes_dir and whitespace-delimited tokens in tgt-admin
// output.
var forbiddenRecordChars = []string{
	"/",    // Path separator
	"\\",   // Windows path separator
	"\x00", // Null byte
	" ",    // Breaks tgt-admin --show token parsing
	"\t",   // Breaks tgt-admin --show token parsing
	"\n",   // Breaks tgt-admin --show line parsing
	"\r",   // Breaks tgt-admin --show line parsing
}

// ExportNameToVolumeID returns the second colon-delimited segment of an
// export name ("iqn.2010-10.org.iser.openstack:volume-1" -> "volume-1").
// Segments after the second are ignored.
func ExportNameToVolumeID(name string) (string, error) {
	parts := strings.Split(name, ExportNameSeparator)
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: export name %q has no %q separator", ErrInvalidParameter, name, ExportNameSeparator)
	}

	volumeID := parts[1]
	if err := ValidateRecordName(volumeID); err != nil {
		return "", fmt.Errorf("invalid volume id in export name %q: %w", name, err)
	}

	return volumeID, nil
}

// VolumeIDToIQN builds the IQN tgtd reports for a volume
func VolumeIDToIQN(prefix, volumeID string) string {
	return prefix + volumeID
}

// ValidateVolumeNameTemplate checks that template formats exactly one string
func ValidateVolumeNameTemplate(template string) error {
	if template == "" {
		return fmt.Errorf("%w: volume name template cannot be empty", ErrInvalidParameter)
	}

	verbs := strings.Count(template, "%") - 2*strings.Count(template, "%%")
	if verbs != 1 || !strings.Contains(strings.ReplaceAll(template, "%%", ""), "%s") {
		return fmt.Errorf("%w: volume name template %q must contain exactly one %%s", ErrInvalidParameter, template)
	}

	return nil
}

// VolumeIDToRecordName applies the volume name template to a volume id
// ("volume-%s", "1234" -> "volume-1234")
func VolumeIDToRecordName(template, volumeID string) (string, error) {
	if err := ValidateVolumeNameTemplate(template); err != nil {
		return "", err
	}

	name := fmt.Sprintf(template, volumeID)
	if err := ValidateRecordName(name); err != nil {
		return "", err
	}

	return name, nil
}

// ValidateRecordName validates that a record name is safe to use as a
// filename directly under the volumes directory
func ValidateRecordName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: record name cannot be empty", ErrInvalidParameter)
	}

	if name == "." || name == ".." {
		return fmt.Errorf("%w: record name %q is not a file name", ErrInvalidParameter, name)
	}

	for _, char := range forbiddenRecordChars {
		if strings.Contains(name, char) {
			return fmt.Errorf("%w: record name contains forbidden character %q: %q", ErrInvalidParameter, char, name)
		}
	}

	if len(name) > maxRecordNameLen {
		return fmt.Errorf("%w: record name too long: %d characters (max %d)", ErrInvalidParameter, len(name), maxRecordNameLen)
	}

	return nil
}
