package broker

import (
	"os"

	"feasibility-backend/internal/pkg/errs"

	"github.com/BurntSushi/toml"
)

// SiteCatalogue maps broker site ids to display names.
//
//	[[site]]
//	id   = "1"
//	name = "University Hospital A"
type SiteCatalogue struct {
	names map[string]string
}

type siteFile struct {
	Sites []struct {
		ID   string `toml:"id"`
		Name string `toml:"name"`
	} `toml:"site"`
}

func NewSiteCatalogue(names map[string]string) *SiteCatalogue {
	c := &SiteCatalogue{names: make(map[string]string, len(names))}
	for id, name := range names {
		c.names[id] = name
	}
	return c
}

// LoadSiteCatalogue reads a TOML catalogue. An empty path yields an empty catalogue.
func LoadSiteCatalogue(path string) (*SiteCatalogue, error) {
	if path == "" {
		return NewSiteCatalogue(nil), nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, errs.Wrapf(err, "site catalogue %s", path)
	}
	var f siteFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, errs.Wrap(err, "failed to parse site catalogue")
	}
	names := make(map[string]string, len(f.Sites))
	for _, s := range f.Sites {
		if s.ID == "" || s.Name == "" {
			return nil, errs.Newf("site catalogue %s: entries need id and name", path)
		}
		names[s.ID] = s.Name
	}
	return NewSiteCatalogue(names), nil
}

// Name falls back to the id itself for sites missing from the catalogue.
func (c *SiteCatalogue) Name(siteID string) (string, error) {
	if siteID == "" {
		return "", errs.Wrap(ErrSiteNotFound, "empty site id")
	}
	if n, ok := c.names[siteID]; ok {
		return n, nil
	}
	return siteID, nil
}
