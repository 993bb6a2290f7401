package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	apperrors "activity-signup/internal/common/errors"
	"activity-signup/internal/common/validation"
)

// DefaultCatalog returns the embedded Mergington High School catalog.
func DefaultCatalog() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadCatalog reads and validates a catalog file. An empty path yields the
// default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse validates data against the catalog schema and decodes it.
func Parse(data []byte) (*Catalog, error) {
	res, err := validation.ValidateJSON(catalogSchema, data)
	if err != nil {
		return nil, apperrors.NewCatalogInvalidError(err.Error())
	}
	if !res.Valid {
		return nil, apperrors.NewCatalogInvalidError(res.Error())
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, apperrors.NewCatalogInvalidError(err.Error())
	}
	if err := checkNames(c.Activities); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate re-checks an in-memory catalog, e.g. after Add.
func Validate(c *Catalog) error {
	res, err := validation.ValidateGo(catalogSchema, c)
	if err != nil {
		return apperrors.NewCatalogInvalidError(err.Error())
	}
	if !res.Valid {
		return apperrors.NewCatalogInvalidError(res.Error())
	}
	return checkNames(c.Activities)
}

func checkNames(activities []Activity) error {
	seen := make(map[string]struct{}, len(activities))
	for _, a := range activities {
		if _, dup := seen[a.Name]; dup {
			return apperrors.NewCatalogInvalidError(fmt.Sprintf("duplicate activity name %q", a.Name))
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// Find returns the entry named name.
func (c *Catalog) Find(name string) (Activity, bool) {
	for _, a := range c.Activities {
		if a.Name == name {
			return a, true
		}
	}
	return Activity{}, false
}

// Add appends a new entry and bumps LastUpdated.
func (c *Catalog) Add(a Activity) error {
	if _, exists := c.Find(a.Name); exists {
		return apperrors.NewCatalogInvalidError(fmt.Sprintf("duplicate activity name %q", a.Name))
	}
	if a.Participants == nil {
		a.Participants = []string{}
	}
	c.Activities = append(c.Activities, a)
	c.LastUpdated = time.Now().UTC().Format("2006-01-02")
	return Validate(c)
}

// Save writes the catalog as indented JSON.
func Save(path string, c *Catalog) error {
	if err := Validate(c); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Update applies fn to the entry named name and bumps LastUpdated.
func (c *Catalog) Update(name string, fn func(a *Activity)) error {
	for i := range c.Activities {
		if c.Activities[i].Name == name {
			fn(&c.Activities[i])
			c.LastUpdated = time.Now().UTC().Format("2006-01-02")
			return Validate(c)
		}
	}
	return apperrors.NewActivityNotFoundError(name, nil)
}
