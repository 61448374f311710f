// Package policy decides which filesystem paths enter the index.
package policy

import (
	"runtime"
	"strings"

	"github.com/osai-labs/osai/internal/config"
)

// Decision names the rule that settled a path.
type Decision int

const (
	// RejectIgnored means an ignored-directory substring matched.
	RejectIgnored Decision = iota
	// RejectSystem means a hidden, app-data, system or program anchor matched.
	RejectSystem
	// AcceptUserDir means the path is inside a well-known user folder.
	AcceptUserDir
	// AcceptSearchPath means the path is under a configured search path.
	AcceptSearchPath
	// RejectOutside means no rule admitted the path.
	RejectOutside
)

// Accepted reports whether the decision admits the path.
func (d Decision) Accepted() bool {
	return d == AcceptUserDir || d == AcceptSearchPath
}

func (d Decision) String() string {
	switch d {
	case RejectIgnored:
		return "ignored"
	case RejectSystem:
		return "system"
	case AcceptUserDir:
		return "user_dir"
	case AcceptSearchPath:
		return "search_path"
	case RejectOutside:
		return "outside"
	default:
		return "unknown"
	}
}

// Policy is an immutable inclusion policy built from one Settings snapshot.
type Policy struct {
	ignored     []string
	searchPaths []string
	anchors     Anchors
}

// New builds the policy for the host OS.
func New(s *config.Settings) *Policy {
	return NewFor(runtime.GOOS, s)
}

// NewFor builds the policy using the anchors of goos.
func NewFor(goos string, s *config.Settings) *Policy {
	return NewWithAnchors(AnchorsFor(goos), s)
}

// NewWithAnchors builds the policy with explicit anchors.
func NewWithAnchors(a Anchors, s *config.Settings) *Policy {
	p := &Policy{anchors: a}
	for _, d := range s.IgnoredDirectories {
		if d != "" {
			p.ignored = append(p.ignored, strings.ToLower(d))
		}
	}
	for _, sp := range s.SearchPaths {
		if sp != "" {
			p.searchPaths = append(p.searchPaths, strings.ToLower(sp))
		}
	}
	return p
}

// ShouldIndex reports whether path may enter the index.
func (p *Policy) ShouldIndex(path string) bool {
	return p.Decide(path).Accepted()
}

// Decide applies the rules in order: ignored substrings, system anchors,
// well-known user folders, then configured search paths.
func (p *Policy) Decide(path string) Decision {
	lower := strings.ToLower(path)

	if containsAny(lower, p.ignored) {
		return RejectIgnored
	}

	a := &p.anchors
	if containsAny(lower, a.Hidden) ||
		containsAny(lower, a.AppData) ||
		containsAny(lower, a.System) ||
		containsAny(lower, a.ProgramInstall) ||
		hasAnyPrefix(lower+a.Separator, a.SystemRoots) {
		return RejectSystem
	}

	if containsAny(lower, a.UserDirs) {
		return AcceptUserDir
	}

	for _, sp := range p.searchPaths {
		if under(lower, sp, a.Separator) {
			return AcceptSearchPath
		}
	}
	return RejectOutside
}

// under reports whether path equals root or lies beneath it.
func under(path, root, sep string) bool {
	if !strings.HasPrefix(path, root) {
		return false
	}
	if len(path) == len(root) || strings.HasSuffix(root, sep) {
		return true
	}
	return strings.HasPrefix(path[len(root):], sep)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
