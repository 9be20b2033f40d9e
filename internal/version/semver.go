// internal/version/semver.go
package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Version labels follow "vMAJOR.MINOR". Publishing increments MINOR by 1
// and never rolls over (v1.9 -> v1.10). MAJOR never auto-increments;
// bumping it is a deliberate analyst action outside the publish flow.
var versionPattern = regexp.MustCompile(`^v(\d+)\.(\d+)$`)

// FirstVersion is assigned when the current label is missing or unparseable.
const FirstVersion = "v1.1"

// NextVersion computes the label for the next published snapshot.
func NextVersion(current string) string {
	m := versionPattern.FindStringSubmatch(strings.TrimSpace(current))
	if m == nil {
		return FirstVersion
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return FirstVersion
	}
	minor, err := strconv.Atoi(m[2])
	if err != nil {
		return FirstVersion
	}
	return fmt.Sprintf("v%d.%d", major, minor+1)
}
