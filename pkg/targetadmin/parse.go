package targetadmin

import (
	"bufio"
	"fmt"
	"strings"
)

const (
	// tidSeparator trails the target id token in tgt-admin --show output
	tidSeparator = ":"

	backingStorePathLabel = "Backing store path:"
	driverLabel           = "Driver:"
)

// Target is one entry of tgt-admin --show output
type Target struct {
	TID           string
	IQN           string
	Driver        string
	BackingStores []string
}

// renderVolumeConf renders the configuration record tgtd reads for an export
func renderVolumeConf(name, path, chapAuth string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<target %s>\n", name)
	b.WriteString("    driver iser\n")
	fmt.Fprintf(&b, "    backing-store %s\n", path)
	if chapAuth != "" {
		fmt.Fprintf(&b, "    %s\n", chapAuth)
	}
	b.WriteString("</target>\n")
	return b.String()
}

// parseTargetID scans tgt-admin --show output for iqn. The first line with a
// whitespace-delimited token equal to iqn yields the target id: the line's
// second token with its trailing separator removed. Returns "" if no line
// matches.
//
//	Target 7: iqn.2010-iser:vol-123  ->  "7"
func parseTargetID(output, iqn string) string {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || !containsToken(fields, iqn) {
			continue
		}
		return strings.TrimSuffix(fields[1], tidSeparator)
	}
	return ""
}

func containsToken(fields []string, token string) bool {
	for _, f := range fields {
		if f == token {
			return true
		}
	}
	return false
}

// parseTargets parses every target block of tgt-admin --show output
func parseTargets(output string) []Target {
	var targets []Target
	var current *Target

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "Target "):
			fields := strings.Fields(line)
			if len(fields) < 3 {
				current = nil
				continue
			}
			targets = append(targets, Target{
				TID: strings.TrimSuffix(fields[1], tidSeparator),
				IQN: fields[2],
			})
			current = &targets[len(targets)-1]

		case current == nil:
			continue

		case strings.HasPrefix(line, driverLabel) && current.Driver == "":
			current.Driver = strings.TrimSpace(strings.TrimPrefix(line, driverLabel))

		case strings.HasPrefix(line, backingStorePathLabel):
			path := strings.TrimSpace(strings.TrimPrefix(line, backingStorePathLabel))
			// LUN 0 is the controller LUN and has no backing store
			if path != "" && path != "None" {
				current.BackingStores = append(current.BackingStores, path)
			}
		}
	}

	return targets
}
