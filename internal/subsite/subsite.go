// Package subsite holds the static per-repository settings for the HUDOC
// family of document databases.
package subsite

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ErrUnknown is returned when a subsite name is not in the table.
var ErrUnknown = errors.New("unknown subsite")

// Site describes one HUDOC subsite.
type Site struct {
	Name           string
	Library        string
	IDKey          string
	BaseURL        string
	DocumentHost   string
	HasDescription bool
}

// Override is the config-file shape used to adjust or add a Site.
type Override struct {
	Library        string `mapstructure:"library"`
	IDKey          string `mapstructure:"id_key"`
	BaseURL        string `mapstructure:"base_url"`
	DocumentHost   string `mapstructure:"document_host"`
	HasDescription *bool  `mapstructure:"has_description"`
}

// DocumentURL returns the public link for docID, the same shape feeds use.
func (s Site) DocumentURL(docID string) string {
	host := s.DocumentHost
	if host == "" {
		host = fmt.Sprintf("hudoc.%s.coe.int", s.Name)
	}
	return fmt.Sprintf(`https://%s/eng#{"%s":["%s"]}`, host, s.IDKey, docID)
}

// Table maps subsite names to their Site records.
type Table map[string]Site

const conversionPath = "/app/conversion/docx/html/body"

func site(name, library, idKey string) Site {
	return Site{
		Name:           name,
		Library:        library,
		IDKey:          idKey,
		BaseURL:        "https://hudoc." + name + ".coe.int" + conversionPath,
		DocumentHost:   "hudoc." + name + ".coe.int",
		HasDescription: true,
	}
}

// Default returns the built-in table of supported subsites.
func Default() Table {
	sites := []Site{
		site("echr", "ECHR", "itemid"),
		site("grevio", "GREVIO", "greviosectionid"),
		site("commhr", "COMMHR", "commhridentifier"),
		site("cpt", "CPT", "cptsectionid"),
		site("ecri", "ECRI", "ecriidentifier"),
		site("ecrml", "ECRML", "ecrmlsectionid"),
		site("esc", "ESC", "escdcidentifier"),
		site("exec", "EXEC", "execidentifier"),
		site("fcnm", "FCNM", "fcnmsectionid"),
		site("greco", "GRECO", "grecosectionid"),
		site("greta", "GRETA", "gretaidentifier"),
	}
	t := make(Table, len(sites))
	for _, s := range sites {
		t[s.Name] = s
	}
	return t
}

// Lookup returns the Site registered under name.
func (t Table) Lookup(name string) (Site, error) {
	s, ok := t[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Site{}, fmt.Errorf("%w: %q (valid: %s)", ErrUnknown, name, strings.Join(t.Names(), ", "))
	}
	return s, nil
}

// Names lists the registered subsites in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectFromURL infers the subsite from the second DNS label of raw's
// hostname, e.g. hudoc.echr.coe.int -> echr.
func (t Table) DetectFromURL(raw string) (Site, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Site{}, fmt.Errorf("parse link %q: %w", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return Site{}, fmt.Errorf("%w: link %q has no hostname", ErrUnknown, raw)
	}
	labels := strings.Split(strings.ToLower(host), ".")
	if len(labels) < 2 {
		return Site{}, fmt.Errorf("%w: hostname %q", ErrUnknown, host)
	}
	s, ok := t[labels[1]]
	if !ok {
		return Site{}, fmt.Errorf("%w: hostname %q", ErrUnknown, host)
	}
	return s, nil
}

// Merge returns a copy of t with overrides applied. Empty override fields
// keep the existing value; names not in t are added and must be complete.
func (t Table) Merge(overrides map[string]Override) (Table, error) {
	out := make(Table, len(t)+len(overrides))
	for name, s := range t {
		out[name] = s
	}
	for rawName, o := range overrides {
		name := strings.ToLower(strings.TrimSpace(rawName))
		base, exists := out[name]
		if !exists {
			if o.Library == "" || o.IDKey == "" || o.BaseURL == "" {
				return nil, fmt.Errorf("subsite %q: library, id_key and base_url are required", name)
			}
			base = Site{Name: name, HasDescription: true}
		}
		if o.Library != "" {
			base.Library = o.Library
		}
		if o.IDKey != "" {
			base.IDKey = o.IDKey
		}
		if o.BaseURL != "" {
			base.BaseURL = o.BaseURL
		}
		if o.DocumentHost != "" {
			base.DocumentHost = o.DocumentHost
		}
		if o.HasDescription != nil {
			base.HasDescription = *o.HasDescription
		}
		out[name] = base
	}
	return out, nil
}
