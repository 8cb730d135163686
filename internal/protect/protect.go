// Package protect decides which processes the server treats as
// system-owned or otherwise off limits for termination.
package protect

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultSystemUsers are the OS accounts whose processes are hidden by
// default and guarded against termination.
var defaultSystemUsers = map[string][]string{
	"windows": {"SYSTEM", `NT AUTHORITY\SYSTEM`, "LocalService", "NetworkService"},
}

// builtinProtectedNames are processes no reasonable caller should be
// offered a kill on, regardless of owner.
var builtinProtectedNames = []string{
	"init", "systemd", "kthreadd", "launchd", "kernel_task",
	"wininit.exe", "winlogon.exe", "csrss.exe", "smss.exe",
	"services.exe", "lsass.exe",
}

func platformSystemUsers() []string {
	if users, ok := defaultSystemUsers[runtime.GOOS]; ok {
		return users
	}
	return []string{"root"}
}

// PolicyFile is the on-disk shape of an operator protection policy.
type PolicyFile struct {
	ProtectedNames []string `yaml:"protected_names"`
	ProtectedUsers []string `yaml:"protected_users"`
}

// Policy classifies process records by owner and name. Lookup is
// case-insensitive: Windows accounts are case-insensitive by contract
// and a case-folded match on unix only ever protects more.
type Policy struct {
	systemUsers    map[string]bool
	protectedNames map[string]bool
}

// Option extends a Policy beyond the platform defaults.
type Option func(*Policy)

// WithSystemUsers adds operator-configured system accounts.
func WithSystemUsers(users []string) Option {
	return func(p *Policy) {
		for _, u := range users {
			p.addUser(u)
		}
	}
}

// WithProtectedNames adds operator-configured protected process names.
func WithProtectedNames(names []string) Option {
	return func(p *Policy) {
		for _, n := range names {
			p.addName(n)
		}
	}
}

// New builds a Policy from the platform defaults plus any options.
func New(opts ...Option) *Policy {
	p := &Policy{
		systemUsers:    make(map[string]bool),
		protectedNames: make(map[string]bool),
	}
	for _, u := range platformSystemUsers() {
		p.addUser(u)
	}
	for _, n := range builtinProtectedNames {
		p.addName(n)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadPolicyFile merges an operator YAML policy into the Policy.
func (p *Policy) LoadPolicyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read protect policy: %w", err)
	}

	var pf PolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("parse protect policy %s: %w", path, err)
	}

	for _, n := range pf.ProtectedNames {
		p.addName(n)
	}
	for _, u := range pf.ProtectedUsers {
		p.addUser(u)
	}
	return nil
}

func (p *Policy) addUser(user string) {
	user = strings.TrimSpace(user)
	if user != "" {
		p.systemUsers[strings.ToLower(user)] = true
	}
}

func (p *Policy) addName(name string) {
	name = strings.TrimSpace(name)
	if name != "" {
		p.protectedNames[strings.ToLower(name)] = true
	}
}

// IsSystemUser reports whether the account is a system account.
func (p *Policy) IsSystemUser(user string) bool {
	return p.systemUsers[strings.ToLower(strings.TrimSpace(user))]
}

// IsProtectedName reports whether the process name is protected.
func (p *Policy) IsProtectedName(name string) bool {
	return p.protectedNames[strings.ToLower(strings.TrimSpace(name))]
}

// Protected reports whether a process is guarded against termination,
// either by owner or by name.
func (p *Policy) Protected(name, user string) bool {
	return p.IsSystemUser(user) || p.IsProtectedName(name)
}
