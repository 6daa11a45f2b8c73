package version

import (
	"fmt"
	"strings"
)

// validCharacters is a list of characters valid in the appBuild string
const validCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

const (
	appMajor uint = 0
	appMinor uint = 2
	appPatch uint = 0
)

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X github.com/hashchaind/hashchaind/version.appBuild=foo"' if needed.
// It MUST only contain characters from validCharacters.
var appBuild string

// Version returns the application version as a properly formed string
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)

	// The build metadata string is dropped if it contains invalid characters.
	if build := checkAppBuild(appBuild); build != "" {
		version = fmt.Sprintf("%s-%s", version, build)
	}
	return version
}

// checkAppBuild returns the passed string unless it contains any characters not in validCharacters
func checkAppBuild(str string) string {
	for _, r := range str {
		if !strings.ContainsRune(validCharacters, r) {
			return ""
		}
	}
	return str
}
