package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"property-maintenance-backend/internal/model"
	"property-maintenance-backend/internal/repository"
)

// seedFile is the layout of the seed YAML.
type seedFile struct {
	Properties []seedProperty `yaml:"properties"`
}

type seedProperty struct {
	Name              string `yaml:"name"`
	Address           string `yaml:"address"`
	ImageURL          string `yaml:"image_url"`
	ImageHint         string `yaml:"image_hint"`
	OwnerID           string `yaml:"owner_id"`
	LodgifyPropertyID int64  `yaml:"lodgify_property_id"`
}

func loadSeed(path string) ([]seedProperty, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sf seedFile
	if err := yaml.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	for i, p := range sf.Properties {
		if p.Name == "" {
			return nil, fmt.Errorf("property %d has no name", i)
		}
	}
	return sf.Properties, nil
}

type propertyAdder interface {
	AddProperty(ctx context.Context, in repository.PropertyInput) (*model.Property, error)
}

// seed adds every property in order and stops at the first failure.
func seed(ctx context.Context, repo propertyAdder, seeds []seedProperty) (int, error) {
	for i, s := range seeds {
		if _, err := repo.AddProperty(ctx, repository.PropertyInput{
			Name:              s.Name,
			Address:           s.Address,
			ImageURL:          s.ImageURL,
			ImageHint:         s.ImageHint,
			OwnerID:           s.OwnerID,
			LodgifyPropertyID: s.LodgifyPropertyID,
		}); err != nil {
			return i, fmt.Errorf("failed to add %q: %w", s.Name, err)
		}
	}
	return len(seeds), nil
}
