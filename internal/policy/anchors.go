package policy

// Anchors are the platform-specific path fragments the policy matches
// against a lowercased path. Fragments carry the platform separator, so a
// Windows fragment never matches a Unix path and vice versa.
type Anchors struct {
	// Separator is the path separator the fragments are written with.
	Separator string

	// Hidden marks a hidden (dot-prefixed) segment anywhere in the path.
	Hidden []string
	// AppData marks per-user application data anywhere in the path.
	AppData []string
	// System marks OS system directories.
	System []string
	// ProgramInstall marks program installation directories.
	ProgramInstall []string
	// SystemRoots are rejected only as path prefixes, for Unix hierarchies
	// whose names also occur as ordinary user folders.
	SystemRoots []string

	// UserDirs are well-known user folders whose descendants are always
	// admitted once the system checks pass.
	UserDirs []string
}

var windowsAnchors = Anchors{
	Separator:      `\`,
	Hidden:         []string{`\.`},
	AppData:        []string{`\appdata`},
	System:         []string{`\windows\`},
	ProgramInstall: []string{`\program files`, `\programdata\`},
	UserDirs: []string{
		`\documents\`, `\downloads\`, `\pictures\`,
		`\music\`, `\videos\`, `\desktop\`,
	},
}

var darwinAnchors = Anchors{
	Separator:      "/",
	Hidden:         []string{"/."},
	AppData:        []string{"/library/"},
	System:         []string{"/system/"},
	ProgramInstall: []string{"/applications/"},
	SystemRoots: []string{
		"/private/", "/usr/", "/bin/", "/sbin/", "/cores/",
		"/dev/", "/opt/",
	},
	UserDirs: []string{
		"/documents/", "/downloads/", "/pictures/",
		"/music/", "/movies/", "/videos/", "/desktop/",
	},
}

var unixAnchors = Anchors{
	Separator:      "/",
	Hidden:         []string{"/."},
	AppData:        []string{"/snap/"},
	System:         []string{"/lost+found/"},
	ProgramInstall: []string{"/flatpak/"},
	SystemRoots: []string{
		"/proc/", "/sys/", "/dev/", "/run/", "/boot/", "/etc/",
		"/usr/", "/bin/", "/sbin/", "/lib/", "/lib64/", "/opt/",
	},
	UserDirs: []string{
		"/documents/", "/downloads/", "/pictures/",
		"/music/", "/videos/", "/desktop/",
	},
}

// AnchorsFor returns the anchors for a GOOS value. Unknown systems get the
// generic Unix set.
func AnchorsFor(goos string) Anchors {
	switch goos {
	case "windows":
		return windowsAnchors
	case "darwin", "ios":
		return darwinAnchors
	default:
		return unixAnchors
	}
}
