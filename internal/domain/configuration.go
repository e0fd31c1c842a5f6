package domain

import (
	"strings"
	"time"
)

// Platform identifies a monitored source. The set is closed: storage and
// source adapters key on these exact values.
type Platform string

const (
	PlatformTwitter Platform = "twitter"
	PlatformReddit  Platform = "reddit"
	PlatformForum   Platform = "forum"
	PlatformNews    Platform = "news"
)

// Platforms lists every supported platform in a stable order.
func Platforms() []Platform {
	return []Platform{PlatformTwitter, PlatformReddit, PlatformForum, PlatformNews}
}

// Valid reports whether p belongs to the closed platform set.
func (p Platform) Valid() bool {
	switch p {
	case PlatformTwitter, PlatformReddit, PlatformForum, PlatformNews:
		return true
	}
	return false
}

// Ontology groups the four keyword sets used to filter fetched items.
type Ontology struct {
	CoreKeywords       []string `yaml:"coreKeywords" json:"core_keywords"`
	AssociatedKeywords []string `yaml:"associatedKeywords" json:"associated_keywords"`
	NarrativeKeywords  []string `yaml:"narrativeKeywords" json:"narrative_keywords"`
	ExclusionKeywords  []string `yaml:"exclusionKeywords" json:"exclusion_keywords"`
}

// Configuration describes one tracked entity: its identity, ontology and
// platform selection. Identity fields are immutable once created; ontology,
// platform list and the active flag are replaced wholesale on update.
type Configuration struct {
	ID         string              `yaml:"id" json:"id"`
	EntityName string              `yaml:"entityName" json:"entity_name"`
	Aliases    []string            `yaml:"aliases" json:"aliases"`
	Handles    map[Platform]string `yaml:"handles" json:"handles"`
	Ontology   Ontology            `yaml:"ontology" json:"ontology"`
	Platforms  []Platform          `yaml:"platforms" json:"platforms"`
	Active     bool                `yaml:"active" json:"active"`
	CreatedAt  time.Time           `yaml:"createdAt" json:"created_at"`
	UpdatedAt  time.Time           `yaml:"updatedAt" json:"updated_at"`
}

// PlatformEnabled reports whether p is part of the configuration's selection.
func (c Configuration) PlatformEnabled(p Platform) bool {
	for _, enabled := range c.Platforms {
		if enabled == p {
			return true
		}
	}
	return false
}

// FilterCriteria is a read-only projection of a Configuration consumed by the
// filter engine. Built once per agent invocation, never mutated.
type FilterCriteria struct {
	EntityName string
	Aliases    []string
	Handles    []string
	Core       []string
	Associated []string
	Narrative  []string
	Exclusion  []string
}

// NewFilterCriteria projects cfg into the shape the filter engine works
// with for one platform. Only that platform's configured handle is
// carried: a handle registered for a different platform must not match
// its authors.
func NewFilterCriteria(cfg Configuration, platform Platform) FilterCriteria {
	var handles []string
	if h := cfg.Handles[platform]; strings.TrimSpace(h) != "" {
		handles = append(handles, h)
	}
	return FilterCriteria{
		EntityName: cfg.EntityName,
		Aliases:    cfg.Aliases,
		Handles:    handles,
		Core:       cfg.Ontology.CoreKeywords,
		Associated: cfg.Ontology.AssociatedKeywords,
		Narrative:  cfg.Ontology.NarrativeKeywords,
		Exclusion:  cfg.Ontology.ExclusionKeywords,
	}
}
