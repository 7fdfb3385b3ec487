// Package scraper holds per-site extraction profiles. Profiles are immutable
// once a Registry is built and are safe to share between goroutines.
package scraper

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pevans/newsgather/logger"
	"gopkg.in/yaml.v3"
)

// DefaultProfileName names the profile used when no domain matches.
const DefaultProfileName = "default"

// SourceProfile defines how to extract articles from a specific site.
type SourceProfile struct {
	Name                string   `yaml:"name" json:"name"`
	Domains             []string `yaml:"domains" json:"domains"`
	ContentSelectors    []string `yaml:"content_selectors" json:"content_selectors"`
	TitleSelectors      []string `yaml:"title_selectors" json:"title_selectors"`
	AuthorSelectors     []string `yaml:"author_selectors" json:"author_selectors"`
	DateSelectors       []string `yaml:"date_selectors,omitempty" json:"date_selectors,omitempty"`
	ExcludeSelectors    []string `yaml:"exclude_selectors" json:"exclude_selectors"`
	ArticleLinkPatterns []string `yaml:"article_link_patterns,omitempty" json:"article_link_patterns,omitempty"`
}

// Profile is a SourceProfile with its link patterns compiled.
type Profile struct {
	SourceProfile
	LinkPatterns []*regexp.Regexp
}

// IsDefault reports whether p is the fallback profile.
func (p *Profile) IsDefault() bool {
	return p.Name == DefaultProfileName
}

// Registry resolves profiles by normalized hostname.
type Registry struct {
	byHost map[string]*Profile
	def    *Profile
}

// NewRegistry builds a registry. Later profiles win when two claim the same
// domain. Invalid link patterns are skipped and logged.
func NewRegistry(def SourceProfile, profiles []SourceProfile, log logger.Logger) *Registry {
	log = logger.OrNop(log)

	def.Name = DefaultProfileName
	r := &Registry{
		byHost: make(map[string]*Profile),
		def:    compileProfile(def, log),
	}
	for _, sp := range profiles {
		p := compileProfile(sp, log)
		for _, d := range sp.Domains {
			if host := NormalizeHost(d); host != "" {
				r.byHost[host] = p
			}
		}
	}
	return r
}

// DefaultRegistry returns a registry of the built-in profiles.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultProfile(), BuiltinProfiles(), nil)
}

// Lookup returns the profile for host, trying parent domains before
// falling back to the default profile. host may also be a full URL.
func (r *Registry) Lookup(host string) *Profile {
	h := NormalizeHost(host)
	for h != "" {
		if p, ok := r.byHost[h]; ok {
			return p
		}
		_, parent, found := strings.Cut(h, ".")
		if !found || !strings.Contains(parent, ".") {
			break
		}
		h = parent
	}
	return r.def
}

// Default returns the fallback profile.
func (r *Registry) Default() *Profile {
	return r.def
}

// NormalizeHost lowercases a hostname and strips any scheme, port, path and
// leading "www.".
func NormalizeHost(host string) string {
	host = strings.TrimSpace(strings.ToLower(host))
	if _, rest, ok := strings.Cut(host, "://"); ok {
		host = rest
	}
	host, _, _ = strings.Cut(host, "/")
	host, _, _ = strings.Cut(host, "?")
	if i := strings.LastIndex(host, "@"); i >= 0 {
		host = host[i+1:]
	}
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}

func compileProfile(sp SourceProfile, log logger.Logger) *Profile {
	p := &Profile{SourceProfile: sp}
	for _, pattern := range sp.ArticleLinkPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			log.Warn("skipping invalid article link pattern",
				logger.String("profile", sp.Name),
				logger.String("pattern", pattern),
				logger.Error(err))
			continue
		}
		p.LinkPatterns = append(p.LinkPatterns, re)
	}
	return p
}

// profileFile is the on-disk shape of a profiles YAML file.
type profileFile struct {
	Default  *SourceProfile  `yaml:"default"`
	Profiles []SourceProfile `yaml:"profiles"`
}

// LoadRegistry builds a registry from the built-in profiles plus those in
// the YAML file at path. An empty path or a missing file yields the
// built-ins alone.
func LoadRegistry(path string, log logger.Logger) (*Registry, error) {
	def := DefaultProfile()
	profiles := BuiltinProfiles()

	if path == "" {
		return NewRegistry(def, profiles, log), nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return NewRegistry(def, profiles, log), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}

	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse profiles file: %w", err)
	}

	if pf.Default != nil {
		def = *pf.Default
	}
	return NewRegistry(def, append(profiles, pf.Profiles...), log), nil
}
